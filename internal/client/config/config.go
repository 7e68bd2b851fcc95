package config

import (
	"time"

	"github.com/dmitrijs2005/sheetsync/internal/common"
)

// Config holds runtime settings for the sheetsync terminal client.
//
// Fields:
//   - ServerEndpointAddr: host:port of the server gRPC endpoint.
//   - DatabasePath: local SQLite file holding the session.
//   - Collection: collection shown by watch when none is given.
//   - RegistrationCollection: the server's public registration collection.
//   - RequestTimeout: deadline of each unary call.
type Config struct {
	ServerEndpointAddr     string
	DatabasePath           string
	Collection             string
	RegistrationCollection string
	RequestTimeout         time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DatabasePath = "sheetsync.db"
	c.Collection = common.DefaultSyncCollection
	c.RegistrationCollection = common.DefaultRegistrationCollection
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
