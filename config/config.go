package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	// EdgeRegion is where edge functions ship their logs regardless of the
	// location serving the viewer.
	EdgeRegion = "us-east-1"
	// ActivityLogGroup is the log group receiving upload and view records.
	ActivityLogGroup = "/aws/lambda/file-activities"
)

type AppConfig struct {
	// Port web server port for the local server
	Port string

	// AppEnv represent the environment in which the server runs
	AppEnv string

	// AWSRegion region for AWS
	AWSRegion string
	// AWSEndpoint overrides the AWS endpoint, useful with localstack
	AWSEndpoint string
	// BucketName S3 bucket receiving the uploads
	BucketName string
	// LogGroupName CloudWatch log group for activity records
	LogGroupName string
	// CloudFrontDomain public domain used to build media URLs
	CloudFrontDomain string

	// StorageProvider used as the upload signing implementation
	StorageProvider string
	// LocalStorageURL base URL for files when using local storage provider
	LocalStorageURL string
	// LocalStorageDir directory holding files for the local storage provider
	LocalStorageDir string
	// LocalSigningSecret HMAC secret for local upload URLs
	LocalSigningSecret string

	// ActivityProvider used as the activity logging implementation
	ActivityProvider string

	// APIKey required by the local server on x-api-key
	APIKey string

	// LogConsoleLevel minimum level for the console logger
	LogConsoleLevel string
	// LogFilename if set, logs are also written to this file
	LogFilename string

	// LambdaFunction is set by the Lambda runtime, logs are then JSON lines
	LambdaFunction string
}

func LoadConfig() AppConfig {
	return AppConfig{
		Port:               os.Getenv("PORT"),
		AppEnv:             os.Getenv("APP_ENV"),
		AWSRegion:          os.Getenv("AWS_REGION"),
		AWSEndpoint:        os.Getenv("AWS_ENDPOINT"),
		BucketName:         os.Getenv("BUCKET_NAME"),
		LogGroupName:       os.Getenv("LOG_GROUP_NAME"),
		CloudFrontDomain:   os.Getenv("CLOUDFRONT_DOMAIN"),
		StorageProvider:    os.Getenv("STORAGE_PROVIDER"),
		LocalStorageURL:    os.Getenv("LOCAL_STORAGE_URL"),
		LocalStorageDir:    os.Getenv("LOCAL_STORAGE_DIR"),
		LocalSigningSecret: os.Getenv("LOCAL_SIGNING_SECRET"),
		ActivityProvider:   os.Getenv("ACTIVITY_PROVIDER"),
		APIKey:             os.Getenv("API_KEY"),
		LogConsoleLevel:    os.Getenv("LOG_LEVEL"),
		LogFilename:        os.Getenv("LOG_FILENAME"),
		LambdaFunction:     os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
	}
}

// EdgeConfig returns the configuration of the viewer-request function.
// Edge functions cannot receive environment variables so everything but
// what the runtime itself sets is fixed.
func EdgeConfig() AppConfig {
	return AppConfig{
		AWSRegion:        EdgeRegion,
		LogGroupName:     ActivityLogGroup,
		ActivityProvider: "cloudwatch",
		LambdaFunction:   os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
	}
}

// Validate reports every required variable that is empty. What is required
// depends on the selected storage and activity providers, the defaults being
// S3 and CloudWatch.
func (c AppConfig) Validate() error {
	type envVar struct {
		name  string
		value string
	}

	localStorage := strings.EqualFold(c.StorageProvider, "local")
	devActivity := strings.EqualFold(c.ActivityProvider, "dev")

	var required []envVar
	if !localStorage || !devActivity {
		required = append(required, envVar{"AWS_REGION", c.AWSRegion})
	}
	if localStorage {
		required = append(required, envVar{"LOCAL_STORAGE_URL", c.LocalStorageURL})
	} else {
		required = append(required, envVar{"BUCKET_NAME", c.BucketName})
	}
	if !devActivity {
		required = append(required, envVar{"LOG_GROUP_NAME", c.LogGroupName})
	}
	if !localStorage {
		required = append(required, envVar{"CLOUDFRONT_DOMAIN", c.CloudFrontDomain})
	}

	var missing []string
	for _, r := range required {
		if len(r.value) == 0 {
			missing = append(missing, r.name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("Missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
