// Package config loads application configuration with Viper.
//
// Values come from a .env file (if present) and environment variables.
// Defaults are declared on the section structs through `default` tags; nested
// keys map to upper-case variables joined by underscores, so storage.bucket is
// read from STORAGE_BUCKET.
//
// Sections:
//   - Server: HTTP port, API key, body limit, dynamic bucket policy, metrics
//   - Storage: default connection parameters (type, endpoint, credentials, region, bucket)
//   - Log: level and format
//   - Database: optional profile store connection
//
//	cfg, err := config.LoadConfig(".")
package config
