package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/filesharinghq/core/stack"
)

var (
	synthFormat    string
	synthOutput    string
	synthAPIKey    string
	synthBucket    string
	synthCodeKey   string
	synthViewerARN string
)

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Render the CloudFormation template of the service",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := stack.LoadEnv()
		if err != nil {
			return err
		}

		apiKey := synthAPIKey
		if len(apiKey) == 0 {
			apiKey = os.Getenv("API_KEY")
		}
		if len(apiKey) == 0 {
			apiKey = "file-sharing-api-key-" + uuid.NewString()
		}

		tmpl, err := stack.New(stack.Props{
			BucketName:               env.BucketName(),
			APIKey:                   apiKey,
			CodeBucket:               synthBucket,
			UploadCodeKey:            synthCodeKey,
			ViewerRequestFunctionARN: synthViewerARN,
		})
		if err != nil {
			return err
		}

		var b []byte
		switch synthFormat {
		case "yaml":
			b, err = tmpl.YAML()
		case "json":
			b, err = tmpl.JSON()
		default:
			return fmt.Errorf("unknown format %q, use yaml or json", synthFormat)
		}
		if err != nil {
			return err
		}

		if len(synthOutput) == 0 || synthOutput == "-" {
			_, err = cmd.OutOrStdout().Write(b)
			return err
		}
		return os.WriteFile(synthOutput, b, 0644)
	},
}

func init() {
	f := synthCmd.Flags()
	f.StringVarP(&synthFormat, "format", "f", "yaml", "template format: yaml or json")
	f.StringVarP(&synthOutput, "output", "o", "-", "output file, - for stdout")
	f.StringVar(&synthAPIKey, "api-key", "", "API key value (default $API_KEY or a generated one)")
	f.StringVar(&synthBucket, "code-bucket", "", "bucket holding the upload function package")
	f.StringVar(&synthCodeKey, "upload-key", "upload.zip", "key of the upload function package")
	f.StringVar(&synthViewerARN, "viewer-request-arn", "", "published view logger version attached on viewer-request")
}
