package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs"

	"github.com/filesharinghq/core/logger"
)

type fakeLogs struct {
	putErrs    []error
	createErr  error
	puts       []*cloudwatchlogs.PutLogEventsInput
	createCall []*cloudwatchlogs.CreateLogStreamInput
}

func (f *fakeLogs) PutLogEventsWithContext(_ aws.Context, in *cloudwatchlogs.PutLogEventsInput, _ ...request.Option) (*cloudwatchlogs.PutLogEventsOutput, error) {
	f.puts = append(f.puts, in)

	var err error
	if len(f.putErrs) > 0 {
		err = f.putErrs[0]
		f.putErrs = f.putErrs[1:]
	}
	return &cloudwatchlogs.PutLogEventsOutput{}, err
}

func (f *fakeLogs) CreateLogStreamWithContext(_ aws.Context, in *cloudwatchlogs.CreateLogStreamInput, _ ...request.Option) (*cloudwatchlogs.CreateLogStreamOutput, error) {
	f.createCall = append(f.createCall, in)
	return &cloudwatchlogs.CreateLogStreamOutput{}, f.createErr
}

func notFound() error {
	return awserr.New(cloudwatchlogs.ErrCodeResourceNotFoundException, "The specified log stream does not exist.", nil)
}

var fixedNow = time.Date(2024, 3, 9, 23, 59, 58, 123000000, time.FixedZone("EST", -5*3600))

func newTestCloudWatch(api LogsAPI, buf *bytes.Buffer) *CloudWatch {
	c := NewCloudWatch(api, "test-log-group", logger.New(buf))
	c.now = func() time.Time { return fixedNow }
	return c
}

func TestPutWritesRecord(t *testing.T) {
	api := &fakeLogs{}
	c := newTestCloudWatch(api, &bytes.Buffer{})

	ctx := WithRequestID(context.Background(), "req-1")
	if err := c.Put(ctx, ActionView, "test.jpg", "Mozilla/5.0"); err != nil {
		t.Fatal(err)
	}

	if len(api.puts) != 1 {
		t.Fatalf("expected 1 put got %d", len(api.puts))
	}

	in := api.puts[0]
	if *in.LogGroupName != "test-log-group" {
		t.Errorf("expected test-log-group got %s", *in.LogGroupName)
	}
	// stream follows the UTC date, not the local one
	if *in.LogStreamName != "2024-03-10" {
		t.Errorf("expected 2024-03-10 got %s", *in.LogStreamName)
	}
	if *in.LogEvents[0].Timestamp != fixedNow.UnixNano()/int64(time.Millisecond) {
		t.Errorf("unexpected event timestamp %d", *in.LogEvents[0].Timestamp)
	}

	var rec Record
	if err := json.Unmarshal([]byte(*in.LogEvents[0].Message), &rec); err != nil {
		t.Fatal(err)
	}

	expected := Record{
		Action:    ActionView,
		FileName:  "test.jpg",
		UserAgent: "Mozilla/5.0",
		RequestID: "req-1",
		Timestamp: "2024-03-10T04:59:58.123Z",
	}
	if rec != expected {
		t.Errorf("expected %+v got %+v", expected, rec)
	}
}

func TestPutCreatesMissingStreamOnce(t *testing.T) {
	api := &fakeLogs{putErrs: []error{notFound()}}
	c := newTestCloudWatch(api, &bytes.Buffer{})

	if err := c.Put(context.Background(), ActionUpload, "test.jpg", ""); err != nil {
		t.Fatal(err)
	}

	if len(api.createCall) != 1 {
		t.Errorf("expected 1 stream creation got %d", len(api.createCall))
	} else if *api.createCall[0].LogStreamName != "2024-03-10" {
		t.Errorf("expected stream 2024-03-10 got %s", *api.createCall[0].LogStreamName)
	}
	if len(api.puts) != 2 {
		t.Errorf("expected 2 puts got %d", len(api.puts))
	}
}

func TestPutGivesUpAfterOneRetry(t *testing.T) {
	api := &fakeLogs{putErrs: []error{notFound(), notFound(), notFound()}}
	c := newTestCloudWatch(api, &bytes.Buffer{})

	if err := c.Put(context.Background(), ActionUpload, "test.jpg", ""); err == nil {
		t.Fatal("expected an error when the stream is still missing")
	}

	if len(api.createCall) != 1 {
		t.Errorf("expected 1 stream creation got %d", len(api.createCall))
	}
	if len(api.puts) != 2 {
		t.Errorf("expected 2 puts got %d", len(api.puts))
	}
}

func TestPutStreamAlreadyExists(t *testing.T) {
	api := &fakeLogs{
		putErrs:   []error{notFound()},
		createErr: awserr.New(cloudwatchlogs.ErrCodeResourceAlreadyExistsException, "exists", nil),
	}
	c := newTestCloudWatch(api, &bytes.Buffer{})

	if err := c.Put(context.Background(), ActionUpload, "test.jpg", ""); err != nil {
		t.Fatal(err)
	}
	if len(api.puts) != 2 {
		t.Errorf("expected the write to be retried got %d puts", len(api.puts))
	}
}

func TestPutCreateStreamFails(t *testing.T) {
	api := &fakeLogs{
		putErrs:   []error{notFound()},
		createErr: awserr.New(cloudwatchlogs.ErrCodeResourceNotFoundException, "no log group", nil),
	}
	c := newTestCloudWatch(api, &bytes.Buffer{})

	err := c.Put(context.Background(), ActionUpload, "test.jpg", "")
	if err == nil || !strings.Contains(err.Error(), "create log stream") {
		t.Fatalf("expected a create log stream error got %v", err)
	}
	if len(api.puts) != 1 {
		t.Errorf("expected no retry after a failed creation got %d puts", len(api.puts))
	}
}

func TestPutOtherErrorNotRetried(t *testing.T) {
	api := &fakeLogs{putErrs: []error{errors.New("CloudWatch Error")}}
	c := newTestCloudWatch(api, &bytes.Buffer{})

	if err := c.Put(context.Background(), ActionUpload, "test.jpg", ""); err == nil {
		t.Fatal("expected an error")
	}
	if len(api.createCall) != 0 {
		t.Errorf("expected no stream creation got %d", len(api.createCall))
	}
	if len(api.puts) != 1 {
		t.Errorf("expected 1 put got %d", len(api.puts))
	}
}

func TestRecordSwallowsErrors(t *testing.T) {
	api := &fakeLogs{putErrs: []error{errors.New("CloudWatch Error")}}
	buf := &bytes.Buffer{}
	c := newTestCloudWatch(api, buf)

	c.Record(context.Background(), ActionUpload, "test.jpg", "")

	if !strings.Contains(buf.String(), "failed to log file activity") {
		t.Errorf("expected the failure to be logged got %s", buf.String())
	}
}

func TestUserAgentOmittedWhenEmpty(t *testing.T) {
	api := &fakeLogs{}
	c := newTestCloudWatch(api, &bytes.Buffer{})

	if err := c.Put(context.Background(), ActionUpload, "test.jpg", ""); err != nil {
		t.Fatal(err)
	}

	msg := *api.puts[0].LogEvents[0].Message
	if strings.Contains(msg, "userAgent") || strings.Contains(msg, "requestId") {
		t.Errorf("expected no optional fields got %s", msg)
	}
}
