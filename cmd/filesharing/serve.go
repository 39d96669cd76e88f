package main

import (
	"github.com/spf13/cobra"

	filesharing "github.com/filesharinghq/core"
	"github.com/filesharinghq/core/backend"
	"github.com/filesharinghq/core/config"
	"github.com/filesharinghq/core/logger"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the upload API and the view logger as a local HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := config.LoadConfig()
		if len(servePort) > 0 {
			c.Port = servePort
		}

		log := logger.Get(c)

		b, err := backend.New(c, log)
		if err != nil {
			return err
		}

		return filesharing.Start(b)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "HTTP port to listen on (default $PORT or 8099)")
}
