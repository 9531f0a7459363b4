// Package quiz implements stateless orchestration between the
// leaderboard store and the event bus. It never broadcasts — that is
// exclusively the broadcast coordinator's job, so every instance's
// local subscribers, including the originating one, receive updates
// through the same path.
package quiz

import (
	"context"
	"errors"

	"github.com/terminal-bench/quizleaderboard/internal/leaderboard"
	"github.com/terminal-bench/quizleaderboard/internal/logging"
	"github.com/terminal-bench/quizleaderboard/pkg/eventbus"
)

// ErrInvalidInput is returned when a submission's question number is
// outside {1..10}.
var ErrInvalidInput = errors.New("invalid input")

// Publisher is the subset of eventbus.Client the service depends on.
type Publisher interface {
	Publish(ctx context.Context, e eventbus.Event) error
}

// Service implements handle-join and handle-submit.
type Service struct {
	store      leaderboard.Backend
	bus        Publisher
	instanceID string
}

func NewService(store leaderboard.Backend, bus Publisher, instanceID string) *Service {
	return &Service{store: store, bus: bus, instanceID: instanceID}
}

// HandleJoin initializes quiz/user in the store (no-op if already
// present) and publishes USER_JOINED. Publish failures are logged and
// dropped — they never fail the join itself.
func (s *Service) HandleJoin(ctx context.Context, quizID, userID string) error {
	if _, err := s.store.Initialize(ctx, quizID, userID); err != nil {
		return err
	}
	if err := s.bus.Publish(ctx, eventbus.NewUserJoined(quizID, userID, s.instanceID)); err != nil {
		logging.Warnf("publish USER_JOINED dropped: %v", err)
	}
	return nil
}

// HandleSubmit validates the question number, computes the score delta,
// increments the store, publishes SCORE_UPDATED, and returns the new
// score.
func (s *Service) HandleSubmit(ctx context.Context, quizID, userID string, questionNumber int, correct bool) (int64, error) {
	var delta int64
	if correct {
		points, err := Points(questionNumber)
		if err != nil {
			return 0, ErrInvalidInput
		}
		delta = points
	} else if questionNumber < MinQuestionNumber || questionNumber > MaxQuestionNumber {
		return 0, ErrInvalidInput
	}

	newScore, err := s.store.Increment(ctx, quizID, userID, delta)
	if err != nil {
		return 0, err
	}
	if err := s.bus.Publish(ctx, eventbus.NewScoreUpdated(quizID, userID, newScore, s.instanceID)); err != nil {
		logging.Warnf("publish SCORE_UPDATED dropped: %v", err)
	}
	return newScore, nil
}
