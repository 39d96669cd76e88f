package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs"

	"github.com/filesharinghq/core/logger"
	"github.com/filesharinghq/core/metrics"
)

// LogsAPI is the part of the CloudWatch Logs API used to append records.
// *cloudwatchlogs.CloudWatchLogs satisfies it.
type LogsAPI interface {
	PutLogEventsWithContext(aws.Context, *cloudwatchlogs.PutLogEventsInput, ...request.Option) (*cloudwatchlogs.PutLogEventsOutput, error)
	CreateLogStreamWithContext(aws.Context, *cloudwatchlogs.CreateLogStreamInput, ...request.Option) (*cloudwatchlogs.CreateLogStreamOutput, error)
}

// a write is retried at most once, after creating a missing stream
const maxPutAttempts = 2

// CloudWatch appends records to a daily stream of a fixed log group.
type CloudWatch struct {
	api   LogsAPI
	group string
	log   *logger.Logger
	now   func() time.Time
}

func NewCloudWatch(api LogsAPI, group string, log *logger.Logger) *CloudWatch {
	return &CloudWatch{
		api:   api,
		group: group,
		log:   log,
		now:   time.Now,
	}
}

func (c *CloudWatch) Record(ctx context.Context, action Action, key, client string) {
	if err := c.Put(ctx, action, key, client); err != nil {
		c.log.Error().Err(err).
			Str("action", string(action)).
			Str("fileName", key).
			Msg("failed to log file activity")

		metrics.ActivityRecords.WithLabelValues(string(action), metrics.OutcomeFailed).Inc()
		return
	}

	metrics.ActivityRecords.WithLabelValues(string(action), metrics.OutcomeOK).Inc()
}

// Put writes one record to today's stream. When the stream does not exist
// it is created and the write is attempted one more time.
func (c *CloudWatch) Put(ctx context.Context, action Action, key, client string) error {
	now := c.now()
	stream := StreamName(now)

	msg, err := json.Marshal(NewRecord(ctx, action, key, client, now))
	if err != nil {
		return err
	}

	input := &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(c.group),
		LogStreamName: aws.String(stream),
		LogEvents: []*cloudwatchlogs.InputLogEvent{
			{
				Message:   aws.String(string(msg)),
				Timestamp: aws.Int64(now.UnixNano() / int64(time.Millisecond)),
			},
		},
	}

	for attempt := 1; ; attempt++ {
		_, err = c.api.PutLogEventsWithContext(ctx, input)
		if err == nil {
			return nil
		}

		if attempt >= maxPutAttempts || !hasCode(err, cloudwatchlogs.ErrCodeResourceNotFoundException) {
			return fmt.Errorf("put log events to %s: %w", stream, err)
		}

		if err := c.createStream(ctx, stream); err != nil {
			return err
		}
	}
}

// createStream treats a stream created concurrently by another invocation
// as a success.
func (c *CloudWatch) createStream(ctx context.Context, stream string) error {
	_, err := c.api.CreateLogStreamWithContext(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(c.group),
		LogStreamName: aws.String(stream),
	})
	if err != nil && !hasCode(err, cloudwatchlogs.ErrCodeResourceAlreadyExistsException) {
		return fmt.Errorf("create log stream %s: %w", stream, err)
	}

	if err == nil {
		metrics.LogStreamsCreated.Inc()
		c.log.Info().Str("group", c.group).Str("stream", stream).Msg("log stream created")
	}
	return nil
}

func hasCode(err error, code string) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code() == code
	}
	return false
}
