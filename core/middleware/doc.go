// Package middleware groups the Fiber middleware used by the server.
//
// Subpackages:
//
//   - auth: rejects requests without the configured X-API-Key.
//   - rayid: tags each request with a ray ID in locals and the X-Ray-ID header.
//
// rayid is registered first so every log line of a request carries the same ID.
package middleware
