// Package activity writes the upload and view audit trail.
//
// Recording is best effort: a Recorder never returns an error to its caller,
// failures are reported through the logger and metrics only.
package activity

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
)

const (
	ActivityProviderCloudWatch = "cloudwatch"
	ActivityProviderDev        = "dev"
)

type Action string

const (
	ActionUpload Action = "upload"
	ActionView   Action = "view"
)

// Record is the JSON message stored for each action.
type Record struct {
	Action    Action `json:"action"`
	FileName  string `json:"fileName"`
	UserAgent string `json:"userAgent,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Recorder appends one record per action.
type Recorder interface {
	Record(ctx context.Context, action Action, key, client string)
}

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// NewRecord builds the record of action on key at t. client is the optional
// user agent of the viewer.
func NewRecord(ctx context.Context, action Action, key, client string, t time.Time) Record {
	return Record{
		Action:    action,
		FileName:  key,
		UserAgent: client,
		RequestID: RequestID(ctx),
		Timestamp: t.UTC().Format(timestampLayout),
	}
}

// StreamName is the log stream of the UTC date of t, formatted YYYY-MM-DD.
func StreamName(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

type ctxKey int

const requestIDKey ctxKey = iota

// WithRequestID attaches a request id used on records written with ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the id set with WithRequestID, falling back to the
// Lambda invocation id.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}

	if lc, ok := lambdacontext.FromContext(ctx); ok {
		return lc.AwsRequestID
	}
	return ""
}
