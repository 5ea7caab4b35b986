package api

import "time"

type Config struct {
	Host       string `env:"SERVER_HOST,default=localhost"`
	Port       uint16 `env:"SERVER_PORT,default=8080"`
	CORSOrigin string `env:"CORS_ORIGIN,default=*"`

	// MaxFitConcurrency caps how many fits run at once; requests beyond it
	// queue on the worker pool.
	MaxFitConcurrency int `env:"MAX_FIT_CONCURRENCY,default=4" validate:"required,min=1"`
	// FitTimeout bounds one request's wait for its fit. The solver has no
	// cancellation hook, so a timed-out fit finishes in the background
	// while the request returns 503.
	FitTimeout time.Duration `env:"FIT_TIMEOUT,default=10s" validate:"required"`
}
