package app

import (
	"context"
	"log/slog"

	"github.com/skobkin/bledm/internal/bus"
	"github.com/skobkin/bledm/internal/events"
	"github.com/skobkin/bledm/internal/persistence"
)

type activityInserter interface {
	Insert(ctx context.Context, rec persistence.ActivityRecord) error
}

type writeEnqueuer interface {
	Enqueue(name string, fn func(context.Context) error)
}

// StartActivityProjection journals every session status message while enabled
// reports true. The discovered device list itself is never stored. The
// returned stop func enqueues the writes for every message published before
// the call and then detaches; ctx ending has the same effect.
func StartActivityProjection(
	ctx context.Context,
	messageBus bus.MessageBus,
	writer writeEnqueuer,
	repo activityInserter,
	enabled func() bool,
	logger *slog.Logger,
) (stop func()) {
	if messageBus == nil || writer == nil || repo == nil {
		return func() {}
	}
	if logger == nil {
		logger = slog.Default().With("component", "app.activity")
	}

	stop = bus.Listen(messageBus, events.TopicStatusMessage, func(msg events.StatusMessage) {
		if enabled != nil && !enabled() {
			return
		}
		rec := activityRecordFromMessage(msg)
		logger.Debug("journaling activity", "op", rec.Operation, "failed", rec.Failed)
		writer.Enqueue("activity.insert", func(ctx context.Context) error {
			return repo.Insert(ctx, rec)
		})
	})
	go func() {
		<-ctx.Done()
		stop()
	}()

	return stop
}

func activityRecordFromMessage(msg events.StatusMessage) persistence.ActivityRecord {
	return persistence.ActivityRecord{
		Operation: string(msg.Operation),
		Device:    msg.Device,
		Message:   msg.Text,
		Failed:    msg.Failed,
		At:        msg.Timestamp,
	}
}
