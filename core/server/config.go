package server

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API. Empty disables auth.
	ApiKey string `mapstructure:"api_key" default:""`
	// BodyLimitMB caps upload request bodies.
	BodyLimitMB int `mapstructure:"body_limit_mb" default:"64"`
	// AllowDynamicBuckets lets requests address buckets without a stored profile,
	// reusing the default storage connection.
	AllowDynamicBuckets bool `mapstructure:"allow_dynamic_buckets" default:"false"`
	// MetricsEnabled exposes Prometheus metrics on /metrics.
	MetricsEnabled bool `mapstructure:"metrics_enabled" default:"true"`
}

// BodyLimit returns the body limit in bytes.
func (c Config) BodyLimit() int {
	if c.BodyLimitMB <= 0 {
		return 64 * 1024 * 1024
	}
	return c.BodyLimitMB * 1024 * 1024
}
