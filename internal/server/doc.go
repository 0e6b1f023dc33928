// Package server implements the HTTP server and handlers for fileshare.
// It wires the routes to their dependencies (metadata store, storage
// directory) and provides lifecycle helpers used by tests and the
// production binary.
package server
