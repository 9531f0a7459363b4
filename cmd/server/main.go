// Command server runs one instance of the quiz leaderboard fleet: a
// WebSocket gateway, the quiz/leaderboard core, and the resilience and
// event-bus plumbing that let many instances of this binary present one
// consistent view of a quiz's leaderboard.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/terminal-bench/quizleaderboard/internal/broadcast"
	"github.com/terminal-bench/quizleaderboard/internal/config"
	"github.com/terminal-bench/quizleaderboard/internal/gateway"
	"github.com/terminal-bench/quizleaderboard/internal/leaderboard"
	"github.com/terminal-bench/quizleaderboard/internal/quiz"
	"github.com/terminal-bench/quizleaderboard/internal/resilience"
	"github.com/terminal-bench/quizleaderboard/internal/session"
	"github.com/terminal-bench/quizleaderboard/pkg/circuit"
	"github.com/terminal-bench/quizleaderboard/pkg/eventbus"
)

func main() {
	cfg := config.Load()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	redisBackend := leaderboard.NewRedisBackend(rdb)
	mirror := leaderboard.NewMemoryMirror()

	gate := resilience.New(resilience.Config{
		FailureRateThreshold: cfg.CircuitFailureRateThreshold,
		WindowSize:           cfg.CircuitWindowSize,
		MinCalls:             cfg.CircuitMinCalls,
		OpenDuration:         cfg.CircuitOpenDuration,
		HalfOpenProbes:       cfg.CircuitHalfOpenProbes,
		HealthCheckInterval:  cfg.BackendHealthCheckInterval,
		CallTimeout:          cfg.BackendCallTimeout,
		OnStateChange: func(from, to circuit.State) {
			log.Printf("INFO circuit breaker %s -> %s", from, to)
		},
	}, redisBackend.Ping)

	store := leaderboard.NewStore(gate, redisBackend, mirror)

	bus := eventbus.NewClient(rdb)
	svc := quiz.NewService(store, bus, cfg.InstanceID)

	sessions := session.NewManager(
		cfg.HeartbeatInterval*time.Duration(cfg.HeartbeatTimeoutMultiplier),
		cfg.HeartbeatSweepInterval,
		cfg.RateLimitCapacity,
		cfg.RateLimitRefillTokens,
		cfg.RateLimitRefillPeriod,
		nil,
	)

	gw := gateway.New(sessions, svc, gate)
	sessions.SetOnStale(gw.CloseConnection)
	coordinator := broadcast.NewCoordinator(bus, store, gw, cfg.LeaderboardTopN)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gate.Start(ctx)
	sessions.Start(ctx)

	if err := coordinator.Start(ctx); err != nil {
		log.Fatalf("FATAL failed to start broadcast coordinator: %v", err)
	}

	go func() {
		log.Printf("INFO instance %s listening on :%s", cfg.InstanceID, cfg.Port)
		if err := gw.Start(":" + cfg.Port); err != nil {
			log.Fatalf("FATAL gateway stopped: %v", err)
		}
	}()

	quitSig := make(chan os.Signal, 1)
	signal.Notify(quitSig, syscall.SIGINT, syscall.SIGTERM)
	<-quitSig

	log.Println("INFO shutting down")
	cancel()
	sessions.Stop()
	gate.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer shutdownCancel()
	if err := gw.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR gateway shutdown: %v", err)
	}

	log.Println("INFO shutdown complete")
}
