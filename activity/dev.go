package activity

import (
	"context"
	"time"

	"github.com/filesharinghq/core/logger"
	"github.com/filesharinghq/core/metrics"
)

// Dev writes records to the application logger instead of CloudWatch.
type Dev struct {
	Log *logger.Logger
}

func (d Dev) Record(ctx context.Context, action Action, key, client string) {
	now := time.Now()
	rec := NewRecord(ctx, action, key, client, now)

	d.Log.Info().
		Str("stream", StreamName(now)).
		Str("action", string(rec.Action)).
		Str("fileName", rec.FileName).
		Str("userAgent", rec.UserAgent).
		Str("requestId", rec.RequestID).
		Msg("file activity")

	metrics.ActivityRecords.WithLabelValues(string(action), metrics.OutcomeOK).Inc()
}
