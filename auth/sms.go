package auth

import (
	"context"
	"log/slog"
)

// SMSSender delivers text messages to a phone number.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// LogSender writes messages to the log instead of sending them. It is used
// in development and whenever no SMS gateway is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, phone, message string) error {
	s.Logger.InfoContext(ctx, "sms", "phone", phone, "message", message)
	return nil
}
