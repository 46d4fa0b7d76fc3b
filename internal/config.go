package internal

import (
	"fmt"
	"strings"
	"time"
)

// Config is read from the environment, after an optional .env file.
type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=8080"`
	GrpcPort int    `env:"GRPC_PORT,default=8090"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`
	// DebugPort serves the Badger inspector when LOG_LEVEL is DEBUG.
	DebugPort      int    `env:"DEBUG_PORT,default=8081"`
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`

	JwtSecret         string        `env:"JWT_SECRET,required=true"`
	JwtIssuer         string        `env:"JWT_ISSUER,default=chat-relay"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	PongTimeout          time.Duration `env:"PONG_TIMEOUT,default=60s"`
	MaxMessageSize       int64         `env:"MAX_MESSAGE_SIZE,default=65536"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=1s"`
	SyncHistoryLimit     *int          `env:"SYNC_HISTORY_LIMIT"`

	PushQueueSize   int           `env:"PUSH_QUEUE_SIZE,default=1024"`
	PushWorkers     int           `env:"PUSH_WORKERS,default=2"`
	PushTimeout     time.Duration `env:"PUSH_TIMEOUT,default=5s"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=1s"`
	HealthInterval  time.Duration `env:"HEALTH_INTERVAL,default=5s"`
	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisPushList   string        `env:"REDIS_PUSH_LIST,default=relay:push"`

	// CensoredWords is a comma separated list masked in notification previews.
	CensoredWords   string `env:"CENSORED_WORDS"`
	CharReplacement string `env:"CHARACTER_REPLACEMENT,default=*"`
}

func (c Config) HTTPAddress() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func (c Config) GrpcAddress() string { return fmt.Sprintf("%s:%d", c.Host, c.GrpcPort) }

// Words splits CensoredWords, dropping blanks.
func (c Config) Words() []string {
	var words []string
	for _, w := range strings.Split(c.CensoredWords, ",") {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	return words
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
