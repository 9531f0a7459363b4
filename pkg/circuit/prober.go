package circuit

import (
	"context"
	"sync/atomic"
	"time"
)

// Prober pings a backend on a fixed cadence, independent of the traffic the
// Breaker itself is gating. Sustained success while the Breaker is Open lets
// it force an early transition to HalfOpen, ahead of the cooldown timer.
type Prober struct {
	breaker  *Breaker
	ping     func(ctx context.Context) error
	interval time.Duration

	// sustainedSuccesses consecutive pings must succeed before the prober
	// forces a half-open transition.
	sustainedSuccesses int

	consecutive int32
	stop        chan struct{}
	done        chan struct{}
}

// NewProber builds a Prober. ping is called once per interval; sustained
// defaults to 2 consecutive successes if <= 0.
func NewProber(breaker *Breaker, interval time.Duration, sustained int, ping func(ctx context.Context) error) *Prober {
	if sustained <= 0 {
		sustained = 2
	}
	return &Prober{
		breaker:            breaker,
		ping:               ping,
		interval:           interval,
		sustainedSuccesses: sustained,
		stop:               make(chan struct{}),
		done:               make(chan struct{}),
	}
}

// Start runs the probe loop until ctx is cancelled or Stop is called.
func (p *Prober) Start(ctx context.Context) {
	go p.run(ctx)
}

func (p *Prober) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Prober) tick(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	err := p.ping(cctx)
	if err != nil {
		atomic.StoreInt32(&p.consecutive, 0)
		return
	}

	n := atomic.AddInt32(&p.consecutive, 1)
	if p.breaker.State() == StateOpen && int(n) >= p.sustainedSuccesses {
		p.breaker.ForceHalfOpen()
		atomic.StoreInt32(&p.consecutive, 0)
	}
}

// Stop halts the probe loop and waits for it to exit.
func (p *Prober) Stop() {
	select {
	case <-p.stop:
	default:
		close(p.stop)
	}
	<-p.done
}
