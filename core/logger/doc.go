// Package logger builds the zap logger shared by the CLI and the HTTP server.
//
// A debug level selects zap's development config (ISO8601 timestamps, stack
// traces on warn); any other level selects the production config at that level.
// Format chooses console or json encoding.
//
// HTTP handlers use WithRayID to tag entries with the request id that the
// rayid middleware stores in the fiber locals.
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	logger.WithRayID(log, c).Error("upload failed", zap.Error(err))
package logger
