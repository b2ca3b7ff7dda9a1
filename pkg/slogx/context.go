package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// With returns ctx carrying a logger enriched with args.
func With(ctx context.Context, args ...any) context.Context {
	return WithContext(ctx, FromContext(ctx).With(args...))
}

func WithRequestID(ctx context.Context, reqID string) context.Context {
	return With(ctx, "req_id", reqID)
}

// WithEvent tags every subsequent log line with the event being reconciled.
func WithEvent(ctx context.Context, eventID string) context.Context {
	return With(ctx, "event_id", eventID)
}

// WithAccount tags log lines with the acting account.
func WithAccount(ctx context.Context, accountID string) context.Context {
	return With(ctx, "account_id", accountID)
}
