// Package httpapi provides the Backend adapter for the wikiqa HTTP API.
//
// The client maps each backend operation onto one request under /api and
// translates non-success responses into domain errors. It never retries
// and never caches; an optional token bucket only delays requests.
package httpapi
