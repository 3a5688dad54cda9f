package util

import "go.uber.org/zap"

// NewLogger returns a production logger for env "production", a development logger otherwise.
func NewLogger(env string) *zap.SugaredLogger {
	if env == "production" {
		return zap.Must(zap.NewProduction()).Sugar()
	}

	return zap.Must(zap.NewDevelopment()).Sugar()
}
