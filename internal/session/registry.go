// Package session implements the per-instance connection lifecycle: a
// session registry and room index, a heartbeat monitor, and a rate
// limiter. None of it talks to the shared datastore or the event bus —
// it is purely local bookkeeping for the sessions this instance
// terminates.
package session

import "sync"

// Registry is the session registry and room index. The three session
// maps share one lock and the room index has a second; each lock is held
// only for in-memory map work, the two are never held together, and no
// lock is held across a suspension point.
type Registry struct {
	mu sync.Mutex

	userOf map[string]string // session -> user
	quizOf map[string]string // session -> quiz
	sessOf map[string]string // user -> session (latest wins)

	roomMu sync.Mutex
	rooms  map[string]map[string]struct{} // quiz -> set of sessions
}

func NewRegistry() *Registry {
	return &Registry{
		userOf: make(map[string]string),
		quizOf: make(map[string]string),
		sessOf: make(map[string]string),
		rooms:  make(map[string]map[string]struct{}),
	}
}

// Associate binds user to session. If another session currently holds
// this user, it is overwritten; the old session is not closed — it
// simply stops being the user's current session.
func (r *Registry) Associate(session, user string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userOf[session] = user
	r.sessOf[user] = session
}

// AddToRoom removes session from any prior room, then adds it to quiz's
// room. Empty rooms are removed.
func (r *Registry) AddToRoom(session, quiz string) {
	r.mu.Lock()
	prevQuiz, hadPrev := r.quizOf[session]
	r.quizOf[session] = quiz
	r.mu.Unlock()

	r.roomMu.Lock()
	defer r.roomMu.Unlock()
	if hadPrev && prevQuiz != quiz {
		r.removeFromRoomLocked(prevQuiz, session)
	}
	room, ok := r.rooms[quiz]
	if !ok {
		room = make(map[string]struct{})
		r.rooms[quiz] = room
	}
	room[session] = struct{}{}
}

func (r *Registry) removeFromRoomLocked(quiz, session string) {
	room, ok := r.rooms[quiz]
	if !ok {
		return
	}
	delete(room, session)
	if len(room) == 0 {
		delete(r.rooms, quiz)
	}
}

// QuizOf returns the quiz a session is currently in, if any.
func (r *Registry) QuizOf(session string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quizOf[session]
	return q, ok
}

// UserOf returns the user associated with a session, if any.
func (r *Registry) UserOf(session string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.userOf[session]
	return u, ok
}

// InRoom reports whether session is currently a member of quiz's room.
func (r *Registry) InRoom(session, quiz string) bool {
	r.roomMu.Lock()
	defer r.roomMu.Unlock()
	room, ok := r.rooms[quiz]
	if !ok {
		return false
	}
	_, ok = room[session]
	return ok
}

// RoomMembers returns a snapshot of the sessions currently in quiz's
// room. Safe to call while other sessions join or leave concurrently.
func (r *Registry) RoomMembers(quiz string) []string {
	r.roomMu.Lock()
	defer r.roomMu.Unlock()
	room, ok := r.rooms[quiz]
	if !ok {
		return nil
	}
	members := make([]string, 0, len(room))
	for s := range room {
		members = append(members, s)
	}
	return members
}

// Cleanup removes session from the registry and room index. Idempotent:
// safe to call on a session already partially or fully removed, and safe
// to call concurrently with a sweep or another Cleanup for the same
// session.
func (r *Registry) Cleanup(session string) {
	r.mu.Lock()
	user, hadUser := r.userOf[session]
	quiz, hadQuiz := r.quizOf[session]
	delete(r.userOf, session)
	delete(r.quizOf, session)
	if hadUser {
		if r.sessOf[user] == session {
			delete(r.sessOf, user)
		}
	}
	r.mu.Unlock()

	if hadQuiz {
		r.roomMu.Lock()
		r.removeFromRoomLocked(quiz, session)
		r.roomMu.Unlock()
	}
}
