package main

import "time"

type Config struct {
	LogLevel           string        `env:"LOG_LEVEL,default=info"`
	RedisURL           string        `env:"REDIS_URL,required=true" validate:"required,uri"`
	NotificationsQueue string        `env:"NOTIFICATIONS_QUEUE,default=notifications"`
	// NumberOfWorkers defaults to the machine's parallelism when zero.
	NumberOfWorkers int           `env:"NUMBER_OF_WORKERS" validate:"gte=0"`
	PollInterval    time.Duration `env:"POLL_INTERVAL,default=50ms" validate:"gt=0"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
}
