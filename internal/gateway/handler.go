package gateway

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gorilla/websocket"

	"github.com/terminal-bench/quizleaderboard/internal/logging"
	"github.com/terminal-bench/quizleaderboard/internal/protocol"
	"github.com/terminal-bench/quizleaderboard/internal/quiz"
)

// readPump is the per-connection read loop. It processes inbound frames
// one at a time, which is what gives personal replies their required
// send order: the same goroutine that decoded the frame is the one
// enqueuing its reply.
func (g *Gateway) readPump(client *WSClient) {
	defer func() {
		g.clients.Delete(client.SessionID)
		g.sessions.Cleanup(client.SessionID)
		client.close()
		client.Conn.Close()
	}()

	for {
		_, raw, err := client.Conn.ReadMessage()
		if err != nil {
			return
		}
		g.dispatch(client, raw)
	}
}

// writePump owns the connection's write side exclusively, per
// gorilla/websocket's single-writer requirement.
func (g *Gateway) writePump(client *WSClient) {
	for {
		select {
		case message := <-client.Send:
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-client.Done:
			return
		}
	}
}

// reply sends a personal frame, blocking so ordering within the session
// is preserved, rather than the non-blocking select/default used for
// room broadcast fan-out.
func (g *Gateway) reply(client *WSClient, frame interface{}) {
	payload, err := json.Marshal(frame)
	if err != nil {
		logging.Errorf("marshal reply for session %s: %v", client.SessionID, err)
		return
	}
	select {
	case client.Send <- payload:
	case <-client.Done:
	}
}

func (g *Gateway) dispatch(client *WSClient, raw []byte) {
	ctx := context.Background()
	in, err := protocol.Decode(raw)
	if err != nil {
		g.reply(client, protocol.NewError("InvalidInput", "malformed frame"))
		return
	}

	switch in.Type {
	case protocol.TypeJoin:
		g.handleJoin(ctx, client, in)
	case protocol.TypeSubmitAnswer:
		g.handleSubmit(ctx, client, in)
	case protocol.TypeHeartbeat:
		g.sessions.Heartbeat.Record(client.SessionID)
	default:
		g.reply(client, protocol.NewError("InvalidInput", "unknown message type"))
	}
}

func (g *Gateway) handleJoin(ctx context.Context, client *WSClient, in protocol.Inbound) {
	if !g.sessions.Limiter.TryConsume(client.SessionID) {
		g.reply(client, protocol.NewError("RateLimited", "rate limit exceeded"))
		return
	}
	if in.QuizID == "" || in.UserID == "" {
		g.reply(client, protocol.NewError("InvalidInput", "quizId and userId are required"))
		return
	}

	g.sessions.Registry.Associate(client.SessionID, in.UserID)
	g.sessions.Registry.AddToRoom(client.SessionID, in.QuizID)

	if err := g.svc.HandleJoin(ctx, in.QuizID, in.UserID); err != nil {
		logging.Fault(client.SessionID, in.UserID, in.QuizID, err, "handle-join failed")
		g.reply(client, protocol.NewError("InternalFault", "failed to join quiz"))
		return
	}

	g.reply(client, protocol.NewJoinSuccess(in.QuizID, in.UserID, "joined "+in.QuizID))
}

func (g *Gateway) handleSubmit(ctx context.Context, client *WSClient, in protocol.Inbound) {
	if !g.sessions.Limiter.TryConsume(client.SessionID) {
		g.reply(client, protocol.NewError("RateLimited", "rate limit exceeded"))
		return
	}
	if in.QuizID == "" || in.UserID == "" || in.QuestionNumber == nil || in.Correct == nil {
		g.reply(client, protocol.NewError("InvalidInput", "quizId, userId, questionNumber and correct are required"))
		return
	}
	if !g.sessions.Registry.InRoom(client.SessionID, in.QuizID) {
		g.reply(client, protocol.NewError("NotInRoom", "submit before join on this quiz"))
		return
	}

	newScore, err := g.svc.HandleSubmit(ctx, in.QuizID, in.UserID, *in.QuestionNumber, *in.Correct)
	if errors.Is(err, quiz.ErrInvalidInput) {
		g.reply(client, protocol.NewError("InvalidInput", "question number out of range"))
		return
	}
	if err != nil {
		logging.Fault(client.SessionID, in.UserID, in.QuizID, err, "handle-submit failed")
		g.reply(client, protocol.NewError("InternalFault", "failed to submit answer"))
		return
	}

	pointsEarned := int64(0)
	if *in.Correct {
		pointsEarned, _ = quiz.Points(*in.QuestionNumber)
	}
	g.reply(client, protocol.AnswerResult{
		Type:           protocol.TypeAnswerResult,
		QuizID:         in.QuizID,
		UserID:         in.UserID,
		QuestionNumber: *in.QuestionNumber,
		Correct:        *in.Correct,
		PointsEarned:   pointsEarned,
		NewScore:       newScore,
	})
}
