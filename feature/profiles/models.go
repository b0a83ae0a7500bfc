package profiles

import (
	"time"

	"file-storage/core/storage"
)

// Profile is a stored connection profile for one bucket.
type Profile struct {
	Bucket               string    `gorm:"column:bucket;primaryKey;size:63" json:"bucket"`
	Type                 string    `gorm:"column:type;size:16" json:"type"`
	Endpoint             string    `gorm:"column:endpoint;size:255" json:"endpoint"`
	AccessKey            string    `gorm:"column:access_key;size:255" json:"access_key"`
	SecretKey            string    `gorm:"column:secret_key;size:255" json:"secret_key"`
	Region               string    `gorm:"column:region;size:64" json:"region"`
	PathStyle            bool      `gorm:"column:path_style" json:"path_style"`
	TimeoutSeconds       int       `gorm:"column:timeout_seconds" json:"timeout_seconds"`
	PresignExpirySeconds int       `gorm:"column:presign_expiry_seconds" json:"presign_expiry_seconds"`
	CreatedAt            time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName pins the table name.
func (Profile) TableName() string {
	return "storage_profiles"
}

// Columns lists the columns Migrate expects to find.
var Columns = []string{
	"bucket", "type", "endpoint", "access_key", "secret_key", "region",
	"path_style", "timeout_seconds", "presign_expiry_seconds", "created_at", "updated_at",
}

// Config converts the profile into connection parameters.
func (p Profile) Config() storage.Config {
	return storage.Config{
		Type:           p.Type,
		Endpoint:       p.Endpoint,
		AccessKey:      p.AccessKey,
		SecretKey:      p.SecretKey,
		Region:         p.Region,
		Bucket:         p.Bucket,
		PathStyle:      p.PathStyle,
		TimeoutSeconds: p.TimeoutSeconds,
		PresignExpiry:  time.Duration(p.PresignExpirySeconds) * time.Second,
	}
}

// FromConfig builds a profile from connection parameters.
func FromConfig(cfg storage.Config) Profile {
	return Profile{
		Bucket:               cfg.Bucket,
		Type:                 cfg.StorageType(),
		Endpoint:             cfg.Endpoint,
		AccessKey:            cfg.AccessKey,
		SecretKey:            cfg.SecretKey,
		Region:               cfg.Region,
		PathStyle:            cfg.PathStyle,
		TimeoutSeconds:       cfg.TimeoutSeconds,
		PresignExpirySeconds: int(cfg.PresignExpiry / time.Second),
	}
}

// Masked returns a copy safe to return over the API.
func (p Profile) Masked() Profile {
	p.AccessKey = maskSecret(p.AccessKey)
	p.SecretKey = maskSecret(p.SecretKey)
	return p
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
