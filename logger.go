package main

import (
	"os"

	"go.uber.org/zap"
)

var logger *zap.Logger

// initLogger builds the process-wide logger. Production JSON output by
// default; APP_ENV=dev switches to the console encoder.
func initLogger() {
	var err error
	if os.Getenv("APP_ENV") == "dev" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
}
