// Package backend builds the services used by the upload and view handlers
// from an AppConfig. Nothing here is global: every entrypoint owns the
// Backend it creates.
package backend

import (
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/filesharinghq/core/activity"
	"github.com/filesharinghq/core/config"
	"github.com/filesharinghq/core/logger"
	"github.com/filesharinghq/core/storage"
)

type Backend struct {
	// Config reflect the configuration received on New
	Config config.AppConfig
	// Log initialized Logger for all logging
	Log *logger.Logger
	// Filestore initialized Storer signing uploads
	Filestore storage.Storer
	// Local is set when Filestore is the local provider, the local server
	// then receives and serves the files itself.
	Local *storage.Local
	// Activity initialized Recorder for the audit trail
	Activity activity.Recorder
}

// New validates cfg and initializes the storage and activity providers.
func New(cfg config.AppConfig, log *logger.Logger) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Backend{Config: cfg, Log: log}

	if strings.EqualFold(cfg.StorageProvider, storage.StorageProviderLocal) {
		l, err := storage.NewLocal(cfg.LocalStorageURL, cfg.LocalStorageDir, cfg.LocalSigningSecret)
		if err != nil {
			return nil, err
		}

		b.Filestore = l
		b.Local = l
	} else {
		sess, err := newSession(cfg)
		if err != nil {
			return nil, err
		}

		b.Filestore = storage.NewS3(s3.New(sess), cfg.BucketName, cfg.CloudFrontDomain)
	}

	rec, err := NewRecorder(cfg, log)
	if err != nil {
		return nil, err
	}
	b.Activity = rec

	return b, nil
}

// NewRecorder returns the activity provider selected by cfg, CloudWatch by
// default.
func NewRecorder(cfg config.AppConfig, log *logger.Logger) (activity.Recorder, error) {
	if strings.EqualFold(cfg.ActivityProvider, activity.ActivityProviderDev) {
		return activity.Dev{Log: log}, nil
	}

	sess, err := newSession(cfg)
	if err != nil {
		return nil, err
	}

	return activity.NewCloudWatch(cloudwatchlogs.New(sess), cfg.LogGroupName, log), nil
}

func newSession(cfg config.AppConfig) (*session.Session, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.AWSRegion)}

	if len(cfg.AWSEndpoint) > 0 {
		awsCfg.Endpoint = aws.String(cfg.AWSEndpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	return session.NewSession(awsCfg)
}
