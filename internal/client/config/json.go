package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/sheetsync/internal/flagx"
	"github.com/dmitrijs2005/sheetsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Empty fields
// keep the value already in Config.
type JsonConfig struct {
	ServerEndpointAddr     string         `json:"server_endpoint_addr"`
	DatabasePath           string         `json:"database_path"`
	Collection             string         `json:"collection"`
	RegistrationCollection string         `json:"registration_collection"`
	RequestTimeout         timex.Duration `json:"request_timeout"`
}

// parseJson overlays Config with values loaded from the file named by -c or
// -config. Without either flag nothing happens. Read or unmarshal errors
// panic.
func parseJson(config *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.ServerEndpointAddr = flagx.FirstNonEmpty(c.ServerEndpointAddr, config.ServerEndpointAddr)
	config.DatabasePath = flagx.FirstNonEmpty(c.DatabasePath, config.DatabasePath)
	config.Collection = flagx.FirstNonEmpty(c.Collection, config.Collection)
	config.RegistrationCollection = flagx.FirstNonEmpty(c.RegistrationCollection, config.RegistrationCollection)
	if c.RequestTimeout.Duration != 0 {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
}
