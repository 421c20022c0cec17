// Package server holds the HTTP server configuration.
//
// The serve command builds the Fiber application itself; this package only
// defines the settings it reads: the listen port, the API key protecting
// every route but the health check, and the upload size limit for facts
// documents.
package server
