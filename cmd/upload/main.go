package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	filesharing "github.com/filesharinghq/core"
	"github.com/filesharinghq/core/backend"
	"github.com/filesharinghq/core/config"
	"github.com/filesharinghq/core/logger"
)

func main() {
	c := config.LoadConfig()
	log := logger.Get(c)

	b, err := backend.New(c, log)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot start the upload function")
	}

	up := &filesharing.Uploader{
		Storage:  b.Filestore,
		Activity: b.Activity,
		Log:      b.Log,
	}

	lambda.Start(up.Handle)
}
