// Package server holds the HTTP server configuration.
//
// The start command reads Config to bind the port, size the upload body
// limit, enable API key auth and decide whether buckets without a stored
// profile may be addressed.
package server
