// Package eventbus is the cross-instance publish/subscribe adapter: every
// score or membership change is published on a deterministic per-quiz
// channel and re-read by every instance, including the one that
// published it, so a single shared Redis instance doubles as both the
// leaderboard's storage and its event bus.
package eventbus

import (
	"encoding/json"
	"time"
)

// Event kinds.
const (
	KindUserJoined   = "USER_JOINED"
	KindScoreUpdated = "SCORE_UPDATED"
)

// Event is the wire format published on a quiz's channel. Score is a
// pointer because it is present iff Kind == SCORE_UPDATED.
type Event struct {
	Kind             string    `json:"type"`
	QuizID           string    `json:"quizId"`
	UserID           string    `json:"userId"`
	Score            *int64    `json:"score"`
	Timestamp        time.Time `json:"timestamp"`
	SourceInstanceID string    `json:"sourceInstanceId"`
}

// NewUserJoined builds a USER_JOINED event.
func NewUserJoined(quizID, userID, instanceID string) Event {
	return Event{
		Kind:             KindUserJoined,
		QuizID:           quizID,
		UserID:           userID,
		Score:            nil,
		Timestamp:        time.Now(),
		SourceInstanceID: instanceID,
	}
}

// NewScoreUpdated builds a SCORE_UPDATED event.
func NewScoreUpdated(quizID, userID string, score int64, instanceID string) Event {
	return Event{
		Kind:             KindScoreUpdated,
		QuizID:           quizID,
		UserID:           userID,
		Score:            &score,
		Timestamp:        time.Now(),
		SourceInstanceID: instanceID,
	}
}

// Channel returns the deterministic channel name for a quiz:
// "quiz:" + quiz + ":events".
func Channel(quizID string) string {
	return "quiz:" + quizID + ":events"
}

// WildcardPattern is the pattern the Broadcast Coordinator subscribes to.
const WildcardPattern = "quiz:*:events"

func marshal(e Event) ([]byte, error) {
	return json.Marshal(e)
}

func unmarshal(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}
