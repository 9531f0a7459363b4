// Package protocol defines the JSON frames exchanged with clients: a
// closed set of tagged variants dispatched on the `type` field. The
// event-bus wire format lives in pkg/eventbus.
package protocol

import "encoding/json"

// Inbound frame type discriminators.
const (
	TypeJoin          = "JOIN"
	TypeSubmitAnswer  = "SUBMIT_ANSWER"
	TypeHeartbeat     = "HEARTBEAT"
)

// Outbound frame type discriminators.
const (
	TypeJoinSuccess       = "JOIN_SUCCESS"
	TypeAnswerResult      = "ANSWER_RESULT"
	TypeLeaderboardUpdate = "LEADERBOARD_UPDATE"
	TypeError             = "ERROR"
)

// Inbound is the envelope every client frame decodes into first; Type
// selects which of the optional fields are meaningful. Pointer fields
// distinguish "absent" from "present with zero value" so validation can
// tell a missing questionNumber/correct from question 0 or false.
type Inbound struct {
	Type           string `json:"type"`
	QuizID         string `json:"quizId,omitempty"`
	UserID         string `json:"userId,omitempty"`
	QuestionNumber *int   `json:"questionNumber,omitempty"`
	Correct        *bool  `json:"correct,omitempty"`
}

// Decode parses a raw client frame into an Inbound envelope.
func Decode(raw []byte) (Inbound, error) {
	var in Inbound
	err := json.Unmarshal(raw, &in)
	return in, err
}

// JoinSuccess is the personal reply to a successful JOIN.
type JoinSuccess struct {
	Type    string `json:"type"`
	QuizID  string `json:"quizId"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

func NewJoinSuccess(quizID, userID, message string) JoinSuccess {
	return JoinSuccess{Type: TypeJoinSuccess, QuizID: quizID, UserID: userID, Message: message}
}

// AnswerResult is the personal reply to SUBMIT_ANSWER.
type AnswerResult struct {
	Type           string `json:"type"`
	QuizID         string `json:"quizId"`
	UserID         string `json:"userId"`
	QuestionNumber int    `json:"questionNumber"`
	Correct        bool   `json:"correct"`
	PointsEarned   int64  `json:"pointsEarned"`
	NewScore       int64  `json:"newScore"`
}

// ErrorFrame is the personal reply for every handler error path: the
// connection stays open, only a reply is sent.
type ErrorFrame struct {
	Type    string  `json:"type"`
	Error   string  `json:"error"`
	Details *string `json:"details"`
}

func NewError(reason string, details string) ErrorFrame {
	f := ErrorFrame{Type: TypeError, Error: reason}
	if details != "" {
		f.Details = &details
	}
	return f
}

// LeaderboardEntry is one row of a LEADERBOARD_UPDATE.
type LeaderboardEntry struct {
	UserID string `json:"userId"`
	Score  int64  `json:"score"`
	Rank   int    `json:"rank"`
}

// LeaderboardUpdate is the only frame the broadcast coordinator emits;
// it is always a topic broadcast, never a personal reply.
type LeaderboardUpdate struct {
	Type        string             `json:"type"`
	QuizID      string             `json:"quizId"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

func NewLeaderboardUpdate(quizID string, entries []LeaderboardEntry) LeaderboardUpdate {
	return LeaderboardUpdate{Type: TypeLeaderboardUpdate, QuizID: quizID, Leaderboard: entries}
}
