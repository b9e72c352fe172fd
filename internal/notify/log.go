package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// LogReporter writes caught failures to the application log.
type LogReporter struct {
	Logger *zap.Logger
}

func (r *LogReporter) Report(_ context.Context, err error) {
	fields := []zap.Field{zap.Error(err)}
	var derr *DeliveryError
	if errors.As(err, &derr) {
		fields = append(fields, zap.String("channel", derr.Channel), zap.String("resource", derr.Resource))
	}
	r.Logger.Error("channel_delivery_failed", fields...)
}

// Log is a channel that only writes the notification to the log.
type Log struct {
	name   string
	logger *zap.Logger
}

func NewLog(name string, logger *zap.Logger) *Log {
	return &Log{name: name, logger: logger}
}

func (l *Log) Name() string { return l.name }

func (l *Log) Deliver(_ context.Context, n Notification) error {
	l.logger.Warn("resource_unhealthy",
		zap.String("resource", n.Slug),
		zap.String("status", n.Status.String()),
		zap.String("action", n.Action),
		zap.Time("checked_at", n.CheckedAt),
		zap.String("summary", n.Summary),
	)
	return nil
}
