package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/sheetsync/internal/flagx"
)

// parseFlags overlays command-line flags.
//
//	-a string     HTTP bind address (":3000")
//	-g string     gRPC bind address (":50051")
//	-d string     PostgreSQL DSN
//	-s string     session signing secret
//	-t duration   session lifetime ("24h")
//	-i string     Google OAuth client ID
//	-y string     sync source: placeholder or s3
//	-k string     sync hook token
//	-b string     S3 bucket holding the sheet export
//	-o string     S3 object key of the sheet export
//	-r string     S3 region
//	-e string     S3 base endpoint
//	-m string     path of the markdown served at /read-me
//
// Arguments are filtered first so other components' flags do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-s", "-t", "-i", "-y", "-k", "-b", "-o", "-r", "-e", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "session signing secret")
	fs.DurationVar(&config.SessionTTL, "t", config.SessionTTL, "session lifetime")
	fs.StringVar(&config.GoogleClientID, "i", config.GoogleClientID, "Google OAuth client ID")
	fs.StringVar(&config.SyncSource, "y", config.SyncSource, "sync source (placeholder|s3)")
	fs.StringVar(&config.SyncHookToken, "k", config.SyncHookToken, "sync hook token")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Key, "o", config.S3Key, "S3 object key")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.ReadmePath, "m", config.ReadmePath, "read-me markdown path")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
