// Package logging builds the engine's zap logger and scrubs secrets from
// anything that reaches it.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the root logger. env "local" gets the human-readable development
// encoder; anything else gets production JSON output.
func New(env string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "local" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
