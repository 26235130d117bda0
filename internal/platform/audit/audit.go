// Copyright (c) 2026 RoverLabs. All rights reserved.

/*
Package audit provides the append-only security audit trail.

Every authentication attempt — successful or failed — is recorded with its
outcome, subject, and request metadata so that incidents can be reconstructed
after the fact.

# Reliability

Sinks run best-effort: recording never blocks or fails the authentication
flow. A sink that cannot write logs the problem and moves on.
*/
package audit

import (
	"context"
	"log/slog"
)

// Outcome classifies the result of an audited action.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event is a single audit record.
type Event struct {
	// Action names the audited operation (e.g. "authenticate", "login").
	Action string

	// Outcome is success or failure.
	Outcome Outcome

	// SubjectID is the user id when known, empty for anonymous failures.
	SubjectID string

	// Email is the claimed identity, when one was presented.
	Email string

	// Reason explains a failure in machine-greppable form.
	Reason string

	// Request metadata.
	IP        string
	Path      string
	UserAgent string
}

// Sink receives audit events. Implementations must never block the caller
// and must never return an error into the main flow.
type Sink interface {
	Record(ctx context.Context, event Event)
}

// LogSink writes audit events to a structured logger. It is the default sink;
// deployments that forward to a SIEM implement [Sink] themselves.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a slog-backed audit sink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With(slog.String("channel", "audit"))}
}

// Record implements [Sink].
func (sink *LogSink) Record(ctx context.Context, event Event) {
	level := slog.LevelInfo
	if event.Outcome == OutcomeFailure {
		level = slog.LevelWarn
	}

	sink.logger.Log(ctx, level, "audit_event",
		slog.String("action", event.Action),
		slog.String("outcome", string(event.Outcome)),
		slog.String("subject_id", event.SubjectID),
		slog.String("email", event.Email),
		slog.String("reason", event.Reason),
		slog.String("ip", event.IP),
		slog.String("path", event.Path),
		slog.String("user_agent", event.UserAgent),
	)
}

// Discard is a no-op sink for tests.
type Discard struct{}

// Record implements [Sink].
func (Discard) Record(context.Context, Event) {}
