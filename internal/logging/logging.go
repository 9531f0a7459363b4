// Package logging is a small stdlib-log wrapper: plain log.Printf, no
// structured logging library. It adds the session/user/quiz context
// internal fault entries carry.
package logging

import (
	"log"
	"os"
)

var std = log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)

// Context formats the session/user/quiz triple used throughout the
// handler and resilience layers; any field left empty is rendered "-".
func Context(sessionID, userID, quizID string) string {
	return "session=" + orDash(sessionID) + " user=" + orDash(userID) + " quiz=" + orDash(quizID)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func Infof(format string, args ...interface{}) {
	std.Printf("INFO "+format, args...)
}

func Warnf(format string, args ...interface{}) {
	std.Printf("WARN "+format, args...)
}

func Errorf(format string, args ...interface{}) {
	std.Printf("ERROR "+format, args...)
}

// Fault logs an internal fault with session/user/quiz context attached.
func Fault(sessionID, userID, quizID string, err error, msg string) {
	std.Printf("ERROR %s %s: %v", msg, Context(sessionID, userID, quizID), err)
}
