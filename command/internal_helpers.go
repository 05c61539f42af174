package command

import (
	"context"
	"time"

	"github.com/goliatone/go-registration/pkg/types"
)

func safeClock(clock types.Clock) types.Clock {
	if clock != nil {
		return clock
	}
	return types.SystemClock{}
}

func safeLogger(logger types.Logger) types.Logger {
	if logger != nil {
		return logger
	}
	return types.NopLogger{}
}

func safeNotifier(notifier types.Notifier) types.Notifier {
	if notifier != nil {
		return notifier
	}
	return nopNotifier{}
}

func safeTranslator(translator types.Translator) types.Translator {
	if translator != nil {
		return translator
	}
	return keyTranslator{}
}

func now(clock types.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now()
}

func logActivity(ctx context.Context, sink types.ActivitySink, logger types.Logger, record types.ActivityRecord) {
	if sink == nil {
		return
	}
	if err := sink.Log(ctx, record); err != nil {
		logger.Error("activity log failed", err, "verb", record.Verb)
	}
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, string, ...any) {}

type keyTranslator struct{}

func (keyTranslator) Translate(key string, _ ...string) string { return key }
