package logger

import (
	"go.uber.org/zap"
)

// New creates a zap logger configured for the given environment.
// "development" gets the human-friendly console encoder, everything else
// gets production JSON output.
func New(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewNamed creates a logger for the given environment with a service name
// attached to every entry.
func NewNamed(env, service string) (*zap.Logger, error) {
	log, err := New(env)
	if err != nil {
		return nil, err
	}
	return log.Named(service), nil
}
