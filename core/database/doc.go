// Package database opens the optional GORM connection backing stored
// storage profiles.
//
// Connect supports MySQL (go-sql-driver through gorm.io/driver/mysql) and
// SQLite (gorm.io/driver/sqlite). A failed connection is not fatal to the
// server; callers log it and run with the default storage config only.
//
// MissingColumns inspects a live table so schema drift can be reported after
// migrations.
//
//	db, err := database.Connect(cfg.Database)
//	missing, err := database.MissingColumns(db, "storage_profiles", []string{"bucket", "endpoint"})
package database
