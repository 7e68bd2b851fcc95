package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/dmitrijs2005/sheetsync/internal/flagx"
)

// EnvConfig lists the environment variables understood by the server.
type EnvConfig struct {
	HTTPAddr               string        `envconfig:"HTTP_ADDR"`
	GRPCAddr               string        `envconfig:"GRPC_ADDR"`
	DatabaseURL            string        `envconfig:"DATABASE_URL"`
	SessionSecret          string        `envconfig:"SESSION_SECRET"`
	SessionTTL             time.Duration `envconfig:"SESSION_TTL"`
	PendingTTL             time.Duration `envconfig:"PENDING_TTL"`
	GoogleClientID         string        `envconfig:"GOOGLE_CLIENT_ID"`
	PublicGoogleClientID   string        `envconfig:"NEXT_PUBLIC_GOOGLE_CLIENT_ID"`
	SyncCollection         string        `envconfig:"SYNC_COLLECTION"`
	RegistrationCollection string        `envconfig:"REGISTRATION_COLLECTION"`
	SyncSource             string        `envconfig:"SYNC_SOURCE"`
	SyncHookToken          string        `envconfig:"SYNC_HOOK_TOKEN"`
	S3Bucket               string        `envconfig:"S3_BUCKET"`
	S3Key                  string        `envconfig:"S3_KEY"`
	S3Region               string        `envconfig:"S3_REGION"`
	S3BaseEndpoint         string        `envconfig:"S3_BASE_ENDPOINT"`
	S3AccessKey            string        `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey            string        `envconfig:"S3_SECRET_KEY"`
	ReadmePath             string        `envconfig:"README_PATH"`
}

// dotenvFiles are loaded in order. A variable already set is never
// overwritten, so earlier files and the real environment win.
var dotenvFiles = []string{".env.local", ".env"}

// parseEnv overlays non-empty environment values. It panics when a value
// cannot be parsed.
func parseEnv(config *Config) {
	for _, f := range dotenvFiles {
		_ = godotenv.Load(f)
	}

	var e EnvConfig
	if err := envconfig.Process("", &e); err != nil {
		panic(err)
	}

	setEnv(&config.HTTPAddr, e.HTTPAddr)
	setEnv(&config.GRPCAddr, e.GRPCAddr)
	setEnv(&config.DatabaseDSN, e.DatabaseURL)
	setEnv(&config.SessionSecret, e.SessionSecret)
	if e.SessionTTL > 0 {
		config.SessionTTL = e.SessionTTL
	}
	if e.PendingTTL > 0 {
		config.PendingTTL = e.PendingTTL
	}
	setEnv(&config.GoogleClientID, flagx.FirstNonEmpty(e.GoogleClientID, e.PublicGoogleClientID))
	setEnv(&config.SyncCollection, e.SyncCollection)
	setEnv(&config.RegistrationCollection, e.RegistrationCollection)
	setEnv(&config.SyncSource, e.SyncSource)
	setEnv(&config.SyncHookToken, e.SyncHookToken)
	setEnv(&config.S3Bucket, e.S3Bucket)
	setEnv(&config.S3Key, e.S3Key)
	setEnv(&config.S3Region, e.S3Region)
	setEnv(&config.S3BaseEndpoint, e.S3BaseEndpoint)
	setEnv(&config.S3AccessKey, e.S3AccessKey)
	setEnv(&config.S3SecretKey, e.S3SecretKey)
	setEnv(&config.ReadmePath, e.ReadmePath)
}

func setEnv(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
