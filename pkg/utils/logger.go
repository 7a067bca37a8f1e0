package utils

import "go.uber.org/zap"

// NewProductionLogger returns the JSON logger the server and ingestion
// commands run with.
func NewProductionLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

// NewLogger picks the logger for the current run: the development config
// (console output, debug level) when debug is set, the production config
// otherwise. The chat pipeline logs every state transition, so debug runs
// get noisy on purpose.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
