package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	filesharing "github.com/filesharinghq/core"
	"github.com/filesharinghq/core/backend"
	"github.com/filesharinghq/core/config"
	"github.com/filesharinghq/core/logger"
)

func main() {
	c := config.EdgeConfig()
	log := logger.Get(c)

	rec, err := backend.NewRecorder(c, log)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot start the view logger")
	}

	v := &filesharing.ViewLogger{Activity: rec, Log: log}

	lambda.Start(v.Handle)
}
