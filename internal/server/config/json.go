package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/sheetsync/internal/flagx"
	"github.com/dmitrijs2005/sheetsync/internal/timex"
)

// JsonConfig is the on-disk shape of the -c/-config file. Absent fields keep
// their current value.
type JsonConfig struct {
	HTTPAddr               *string         `json:"http_addr"`
	GRPCAddr               *string         `json:"grpc_addr"`
	DatabaseDSN            *string         `json:"database_dsn"`
	SessionSecret          *string         `json:"session_secret"`
	SessionTTL             *timex.Duration `json:"session_ttl"`
	PendingTTL             *timex.Duration `json:"pending_ttl"`
	GoogleClientID         *string         `json:"google_client_id"`
	SyncCollection         *string         `json:"sync_collection"`
	RegistrationCollection *string         `json:"registration_collection"`
	SyncSource             *string         `json:"sync_source"`
	SyncHookToken          *string         `json:"sync_hook_token"`
	S3Bucket               *string         `json:"s3_bucket"`
	S3Key                  *string         `json:"s3_key"`
	S3Region               *string         `json:"s3_region"`
	S3BaseEndpoint         *string         `json:"s3_base_endpoint"`
	S3AccessKey            *string         `json:"s3_access_key"`
	S3SecretKey            *string         `json:"s3_secret_key"`
	ReadmePath             *string         `json:"readme_path"`
}

// parseJson overlays the file named by -c/-config. It panics when the file
// cannot be read or parsed.
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

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SessionSecret, c.SessionSecret)
	if c.SessionTTL != nil {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.PendingTTL != nil {
		config.PendingTTL = c.PendingTTL.Duration
	}
	setString(&config.GoogleClientID, c.GoogleClientID)
	setString(&config.SyncCollection, c.SyncCollection)
	setString(&config.RegistrationCollection, c.RegistrationCollection)
	setString(&config.SyncSource, c.SyncSource)
	setString(&config.SyncHookToken, c.SyncHookToken)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Key, c.S3Key)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.ReadmePath, c.ReadmePath)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
