package main

import "time"

type Config struct {
	Host                 string        `env:"HOST,default=localhost" validate:"required"`
	Port                 int           `env:"PORT,default=8080" validate:"gt=0"`
	LogLevel             string        `env:"LOG_LEVEL,default=info"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true" validate:"required"`
	RedisURL             string        `env:"REDIS_URL,required=true" validate:"required,uri"`
	NotificationsQueue   string        `env:"NOTIFICATIONS_QUEUE,default=notifications"`
	AvatarBaseURL        string        `env:"AVATAR_BASE_URL,required=true" validate:"required,url"`
	QueueDelay           time.Duration `env:"QUEUE_DELAY,default=1s" validate:"gte=0"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64" validate:"gt=0"`
	HistoryWarmLimit     int           `env:"HISTORY_WARM_LIMIT,default=50" validate:"gt=0"`
	AllowedOrigins       []string      `env:"ALLOWED_ORIGINS"`
}
