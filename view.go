package filesharing

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/filesharinghq/core/activity"
	"github.com/filesharinghq/core/internal"
	"github.com/filesharinghq/core/logger"
)

// EdgeEvent is a CloudFront viewer-request event. The request is kept raw
// so it can be handed back byte for byte.
type EdgeEvent struct {
	Records []EdgeRecord `json:"Records"`
}

type EdgeRecord struct {
	CF struct {
		Config  json.RawMessage `json:"config,omitempty"`
		Request json.RawMessage `json:"request"`
	} `json:"cf"`
}

// EdgeRequest holds the fields of a viewer request read by ViewLogger.
type EdgeRequest struct {
	URI     string                  `json:"uri"`
	Headers map[string][]EdgeHeader `json:"headers"`
}

type EdgeHeader struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (r EdgeRequest) header(name string) string {
	if h := r.Headers[name]; len(h) > 0 {
		return h[0].Value
	}
	return ""
}

// ViewLogger records a view for each content request without ever changing
// or blocking it.
type ViewLogger struct {
	Activity activity.Recorder
	Log      *logger.Logger
}

var errNoRecords = errors.New("edge event has no records")

// Handle logs the view and returns the viewer request unmodified.
func (v *ViewLogger) Handle(ctx context.Context, event EdgeEvent) (json.RawMessage, error) {
	if len(event.Records) == 0 {
		return nil, errNoRecords
	}

	raw := event.Records[0].CF.Request

	var req EdgeRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		v.Log.Error().Err(err).Msg("cannot read viewer request")
		return raw, nil
	}

	v.Intercept(ctx, req.URI, req.header("user-agent"))

	return raw, nil
}

// Intercept records a view of the object named by the last segment of uri.
// Empty names and favicon.ico are skipped.
func (v *ViewLogger) Intercept(ctx context.Context, uri, userAgent string) {
	fileName := internal.LastPathSegment(uri)
	if len(fileName) == 0 || fileName == "favicon.ico" {
		v.Log.Info().Msgf("Skipping logging for file: %s", fileName)
		return
	}

	if len(userAgent) == 0 {
		userAgent = "Unknown"
	}

	v.Activity.Record(ctx, activity.ActionView, fileName, userAgent)
}
