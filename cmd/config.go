package main

import "time"

type Config struct {
	Host                      string        `env:"HOST,default=localhost"`
	Port                      int           `env:"PORT,default=8080"`
	LogLevel                  string        `env:"LOG_LEVEL,required=true"`
	BadgerFilepath            string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath             string        `env:"BLUGE_FILEPATH,required=true"`
	JWTSecret                 string        `env:"JWT_SECRET,required=true"`
	TokenTTL                  time.Duration `env:"TOKEN_TTL,default=72h"`
	SessionBufferSize         int           `env:"SESSION_BUFFER_SIZE,default=256"`
	ModerationCharReplacement rune          `env:"MODERATION_CHARACTER_REPLACEMENT,required=true"`
	LimitMessages             *int          `env:"LIMIT_MESSAGES"`
	SearchLimit               int           `env:"SEARCH_LIMIT,default=50"`
	HeartbeatInterval         time.Duration `env:"HEARTBEAT_INTERVAL,default=5s"`
	RestartInterval           time.Duration `env:"RESTART_INTERVAL,default=200ms"`
}
