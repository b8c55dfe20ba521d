// Package notify provides Notifier implementations for the verification
// and reset flows.
package notify

import (
	"context"
	"log/slog"
)

// Log writes each outbound email to a structured logger instead of sending
// it. It is the delivery backend for local development and tests; secrets
// in the payload make its output unsuitable for production log sinks.
type Log struct {
	log *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{log: logger}
}

func (n *Log) SendVerificationEmail(_ context.Context, name, email, code string) error {
	n.log.Info("verification email",
		slog.String("name", name),
		slog.String("email", email),
		slog.String("code", code),
	)
	return nil
}

func (n *Log) SendResetEmail(_ context.Context, email, token string) error {
	n.log.Info("password reset email",
		slog.String("email", email),
		slog.String("token", token),
	)
	return nil
}
