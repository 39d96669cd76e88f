// Package stack renders the CloudFormation template deploying the file
// sharing service: the bucket and its distribution, the activity log group,
// the upload function and the API gateway with its usage plan.
//
// The bucket is public-read and its CORS rule allows any origin. This
// mirrors the service as it runs today and is kept as-is until product
// decides otherwise.
package stack

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/filesharinghq/core/config"
	"github.com/filesharinghq/core/middleware"
)

// Env holds the account and region the stack is deployed to.
type Env struct {
	Account string
	Region  string
}

// LoadEnv reads AWS_ACCOUNT and AWS_REGION, both required.
func LoadEnv() (Env, error) {
	env := Env{
		Account: os.Getenv("AWS_ACCOUNT"),
		Region:  os.Getenv("AWS_REGION"),
	}

	var missing []string
	if len(env.Account) == 0 {
		missing = append(missing, "AWS_ACCOUNT")
	}
	if len(env.Region) == 0 {
		missing = append(missing, "AWS_REGION")
	}

	if len(missing) > 0 {
		return env, fmt.Errorf("Missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return env, nil
}

// BucketName is the default bucket name of an environment.
func (e Env) BucketName() string {
	return fmt.Sprintf("file-sharing-bucket-%s-%s", e.Account, e.Region)
}

type Props struct {
	BucketName string
	APIKey     string
	// CodeBucket and UploadCodeKey locate the zipped upload function.
	CodeBucket    string
	UploadCodeKey string
	// ViewerRequestFunctionARN is the published version of the view
	// logger. The distribution has no viewer-request association when empty.
	ViewerRequestFunctionARN string
}

type Template struct {
	AWSTemplateFormatVersion string              `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string              `json:"Description" yaml:"Description"`
	Resources                map[string]Resource `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output   `json:"Outputs" yaml:"Outputs"`
}

type Resource struct {
	Type       string                 `json:"Type" yaml:"Type"`
	DependsOn  []string               `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
	Properties map[string]interface{} `json:"Properties" yaml:"Properties"`
}

type Output struct {
	Description string      `json:"Description" yaml:"Description"`
	Value       interface{} `json:"Value" yaml:"Value"`
}

type obj = map[string]interface{}

func ref(name string) obj { return obj{"Ref": name} }

func getAtt(name, attr string) obj { return obj{"Fn::GetAtt": []string{name, attr}} }

func sub(s string) obj { return obj{"Fn::Sub": s} }

// stage the API is deployed to
const stageName = "prod"

// New builds the template for p.
func New(p Props) (*Template, error) {
	if len(p.BucketName) == 0 {
		return nil, errors.New("bucket name is required")
	}
	if len(p.APIKey) == 0 {
		return nil, errors.New("api key is required")
	}
	if len(p.CodeBucket) == 0 || len(p.UploadCodeKey) == 0 {
		return nil, errors.New("upload function code location is required")
	}

	t := &Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              "File sharing service with upload and view tracking",
		Resources:                map[string]Resource{},
		Outputs:                  map[string]Output{},
	}

	t.addStorage(p)
	t.addActivityLog()
	t.addUploadFunction(p)
	t.addDistribution(p)
	t.addAPI(p)

	return t, nil
}

func (t *Template) addStorage(p Props) {
	t.Resources["FileSharingBucket"] = Resource{
		Type: "AWS::S3::Bucket",
		Properties: obj{
			"BucketName":              p.BucketName,
			"VersioningConfiguration": obj{"Status": "Enabled"},
			"BucketEncryption": obj{
				"ServerSideEncryptionConfiguration": []obj{
					{"ServerSideEncryptionByDefault": obj{"SSEAlgorithm": "AES256"}},
				},
			},
			"PublicAccessBlockConfiguration": obj{
				"BlockPublicAcls":       false,
				"BlockPublicPolicy":     false,
				"IgnorePublicAcls":      false,
				"RestrictPublicBuckets": false,
			},
			"CorsConfiguration": obj{
				"CorsRules": []obj{
					{
						"AllowedMethods": []string{"GET", "PUT"},
						"AllowedOrigins": []string{"*"},
						"AllowedHeaders": []string{"*"},
					},
				},
			},
		},
	}

	t.Resources["FileSharingBucketPolicy"] = Resource{
		Type: "AWS::S3::BucketPolicy",
		Properties: obj{
			"Bucket": ref("FileSharingBucket"),
			"PolicyDocument": obj{
				"Version": "2012-10-17",
				"Statement": []obj{
					{
						"Effect":    "Allow",
						"Principal": obj{"AWS": "*"},
						"Action":    "s3:GetObject",
						"Resource":  sub("${FileSharingBucket.Arn}/*"),
					},
				},
			},
		},
	}

	t.Outputs["BucketName"] = Output{
		Description: "Name of the S3 bucket for file storage",
		Value:       p.BucketName,
	}
}

func (t *Template) addActivityLog() {
	t.Resources["FileActivityLog"] = Resource{
		Type: "AWS::Logs::LogGroup",
		Properties: obj{
			"LogGroupName":    config.ActivityLogGroup,
			"RetentionInDays": 7,
		},
	}
}

func (t *Template) addUploadFunction(p Props) {
	t.Resources["PresignedUrlLambdaRole"] = Resource{
		Type: "AWS::IAM::Role",
		Properties: obj{
			"AssumeRolePolicyDocument": obj{
				"Version": "2012-10-17",
				"Statement": []obj{
					{
						"Effect":    "Allow",
						"Principal": obj{"Service": "lambda.amazonaws.com"},
						"Action":    "sts:AssumeRole",
					},
				},
			},
			"ManagedPolicyArns": []string{
				"arn:aws:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole",
			},
			"Policies": []obj{
				{
					"PolicyName": "file-sharing-upload",
					"PolicyDocument": obj{
						"Version": "2012-10-17",
						"Statement": []obj{
							{
								"Effect":   "Allow",
								"Action":   []string{"s3:GetObject", "s3:PutObject", "s3:DeleteObject"},
								"Resource": sub("${FileSharingBucket.Arn}/*"),
							},
							{
								"Effect": "Allow",
								"Action": []string{
									"logs:CreateLogGroup",
									"logs:CreateLogStream",
									"logs:PutLogEvents",
									"logs:DescribeLogStreams",
								},
								"Resource": sub("${FileActivityLog.Arn}"),
							},
						},
					},
				},
			},
		},
	}

	t.Resources["PresignedUrlLambda"] = Resource{
		Type: "AWS::Lambda::Function",
		Properties: obj{
			"Runtime":       "provided.al2023",
			"Handler":       "bootstrap",
			"Architectures": []string{"arm64"},
			"Role":          getAtt("PresignedUrlLambdaRole", "Arn"),
			"Code": obj{
				"S3Bucket": p.CodeBucket,
				"S3Key":    p.UploadCodeKey,
			},
			"Environment": obj{
				"Variables": obj{
					"BUCKET_NAME":       p.BucketName,
					"LOG_GROUP_NAME":    ref("FileActivityLog"),
					"CLOUDFRONT_DOMAIN": getAtt("Distribution", "DomainName"),
				},
			},
		},
	}
}

func (t *Template) addDistribution(p Props) {
	behavior := obj{
		"TargetOriginId":       "S3Origin",
		"ViewerProtocolPolicy": "redirect-to-https",
		// managed CachingOptimized policy
		"CachePolicyId": "658327ea-f89d-4fab-a63d-7e88639e58f6",
	}

	if len(p.ViewerRequestFunctionARN) > 0 {
		behavior["LambdaFunctionAssociations"] = []obj{
			{
				"EventType":         "viewer-request",
				"LambdaFunctionARN": p.ViewerRequestFunctionARN,
			},
		}
	}

	t.Resources["Distribution"] = Resource{
		Type: "AWS::CloudFront::Distribution",
		Properties: obj{
			"DistributionConfig": obj{
				"Enabled": true,
				"Origins": []obj{
					{
						"Id":             "S3Origin",
						"DomainName":     getAtt("FileSharingBucket", "RegionalDomainName"),
						"S3OriginConfig": obj{"OriginAccessIdentity": ""},
					},
				},
				"DefaultCacheBehavior": behavior,
			},
		},
	}

	t.Outputs["CloudFrontDomain"] = Output{
		Description: "CloudFront domain for accessing media files",
		Value:       getAtt("Distribution", "DomainName"),
	}
}

func (t *Template) addAPI(p Props) {
	t.Resources["FileSharingApi"] = Resource{
		Type: "AWS::ApiGateway::RestApi",
		Properties: obj{
			"Name":        "File Sharing Service",
			"Description": "File sharing service with upload and view tracking",
		},
	}

	t.Resources["FilesResource"] = Resource{
		Type: "AWS::ApiGateway::Resource",
		Properties: obj{
			"RestApiId": ref("FileSharingApi"),
			"ParentId":  getAtt("FileSharingApi", "RootResourceId"),
			"PathPart":  "files",
		},
	}

	t.Resources["PresignedUrlResource"] = Resource{
		Type: "AWS::ApiGateway::Resource",
		Properties: obj{
			"RestApiId": ref("FileSharingApi"),
			"ParentId":  ref("FilesResource"),
			"PathPart":  "presigned-url",
		},
	}

	t.Resources["PresignedUrlGet"] = Resource{
		Type: "AWS::ApiGateway::Method",
		Properties: obj{
			"RestApiId":         ref("FileSharingApi"),
			"ResourceId":        ref("PresignedUrlResource"),
			"HttpMethod":        "GET",
			"AuthorizationType": "NONE",
			"ApiKeyRequired":    true,
			"Integration": obj{
				"Type":                  "AWS_PROXY",
				"IntegrationHttpMethod": "POST",
				"Uri":                   sub("arn:aws:apigateway:${AWS::Region}:lambda:path/2015-03-31/functions/${PresignedUrlLambda.Arn}/invocations"),
			},
		},
	}

	t.Resources["PresignedUrlPermission"] = Resource{
		Type: "AWS::Lambda::Permission",
		Properties: obj{
			"Action":       "lambda:InvokeFunction",
			"FunctionName": getAtt("PresignedUrlLambda", "Arn"),
			"Principal":    "apigateway.amazonaws.com",
			"SourceArn":    sub("arn:aws:execute-api:${AWS::Region}:${AWS::AccountId}:${FileSharingApi}/*/GET/files/presigned-url"),
		},
	}

	t.Resources["FileSharingApiDeployment"] = Resource{
		Type:       "AWS::ApiGateway::Deployment",
		DependsOn:  []string{"PresignedUrlGet"},
		Properties: obj{"RestApiId": ref("FileSharingApi")},
	}

	t.Resources["FileSharingApiStage"] = Resource{
		Type: "AWS::ApiGateway::Stage",
		Properties: obj{
			"RestApiId":    ref("FileSharingApi"),
			"DeploymentId": ref("FileSharingApiDeployment"),
			"StageName":    stageName,
		},
	}

	t.Resources["FileSharingApiKey"] = Resource{
		Type: "AWS::ApiGateway::ApiKey",
		Properties: obj{
			"Enabled": true,
			"Value":   p.APIKey,
		},
	}

	plan := middleware.BasicPlan
	t.Resources["FileSharingUsagePlan"] = Resource{
		Type:      "AWS::ApiGateway::UsagePlan",
		DependsOn: []string{"FileSharingApiStage"},
		Properties: obj{
			"UsagePlanName": plan.Name,
			"Throttle": obj{
				"RateLimit":  plan.RateLimit,
				"BurstLimit": plan.BurstLimit,
			},
			"Quota": obj{
				"Limit":  plan.QuotaLimit,
				"Period": "DAY",
			},
			"ApiStages": []obj{
				{"ApiId": ref("FileSharingApi"), "Stage": stageName},
			},
		},
	}

	t.Resources["FileSharingUsagePlanKey"] = Resource{
		Type: "AWS::ApiGateway::UsagePlanKey",
		Properties: obj{
			"KeyId":       ref("FileSharingApiKey"),
			"KeyType":     "API_KEY",
			"UsagePlanId": ref("FileSharingUsagePlan"),
		},
	}

	t.Outputs["ApiKey"] = Output{
		Description: "API Key for accessing the File Sharing Service",
		Value:       p.APIKey,
	}
	t.Outputs["ApiUrl"] = Output{
		Description: "URL of the API Gateway endpoint",
		Value:       sub("https://${FileSharingApi}.execute-api.${AWS::Region}.amazonaws.com/" + stageName + "/"),
	}
}

// YAML encodes the template as YAML.
func (t *Template) YAML() ([]byte, error) {
	return yaml.Marshal(t)
}

// JSON encodes the template as indented JSON.
func (t *Template) JSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}
