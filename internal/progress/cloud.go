package progress

import (
	"context"
	"fmt"

	"cloud.google.com/go/logging"
	"google.golang.org/api/option"
)

// EntryLogger is the subset of *logging.Logger used by CloudSink.
type EntryLogger interface {
	Log(e logging.Entry)
	Flush() error
}

// CloudSink forwards notifications to Google Cloud Logging.
type CloudSink struct {
	logger EntryLogger
	labels map[string]string
	closer func() error
}

// NewCloudSink opens a Cloud Logging client for the given project.
func NewCloudSink(ctx context.Context, project, logID, runID string, opts ...option.ClientOption) (*CloudSink, error) {
	client, err := logging.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud logging client: %w", err)
	}

	return &CloudSink{
		logger: client.Logger(logID),
		labels: map[string]string{
			"run_id":    runID,
			"component": "crashreporter",
		},
		closer: client.Close,
	}, nil
}

// NewCloudSinkWithLogger wraps an existing logger (used in tests).
func NewCloudSinkWithLogger(l EntryLogger, runID string) *CloudSink {
	return &CloudSink{
		logger: l,
		labels: map[string]string{
			"run_id":    runID,
			"component": "crashreporter",
		},
	}
}

func (s *CloudSink) log(severity logging.Severity, msg string) {
	s.logger.Log(logging.Entry{
		Severity: severity,
		Payload:  msg,
		Labels:   s.labels,
	})
}

func (s *CloudSink) Update(msg string) { s.log(logging.Info, msg) }
func (s *CloudSink) Warn(msg string)   { s.log(logging.Warning, msg) }
func (s *CloudSink) Error(msg string)  { s.log(logging.Error, msg) }

// Close flushes buffered entries and releases the client.
func (s *CloudSink) Close() error {
	if err := s.logger.Flush(); err != nil {
		return fmt.Errorf("failed to flush cloud logging: %w", err)
	}
	if s.closer != nil {
		return s.closer()
	}
	return nil
}

var _ ErrorNotifier = (*CloudSink)(nil)
