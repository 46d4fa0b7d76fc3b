package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// RELAY_ADDR is the HTTP host:port of a seeded relay. Empty skips the suite.
	RelayAddr string `envconfig:"RELAY_ADDR"`
	GrpcAddr  string `envconfig:"GRPC_ADDR" default:"localhost:8090"`
	JwtSecret string `envconfig:"JWT_SECRET"`
	JwtIssuer string `envconfig:"JWT_ISSUER" default:"chat-relay"`
	// E2E_DEBUG_JSON dumps every websocket frame
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
