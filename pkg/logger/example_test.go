package logger_test

import (
	"errors"
	"os"

	"github.com/wonny/swing/backend/pkg/config"
	"github.com/wonny/swing/backend/pkg/logger"
)

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	log := logger.New(&config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	})

	log.WithTicker("RELIANCE.BO").
		WithFields(map[string]interface{}{
			"swing_score": 65.0,
			"probability": 58.4,
		}).
		Info("Candidate ready")
}

// Example_withError demonstrates error logging
func Example_withError() {
	log := logger.NewWithWriter(os.Stderr, "error")

	err := errors.New("yahoo: status 429")
	log.WithError(err).WithField("ticker", "TCS.BO").Error("History fetch failed")
}
