package restmachinery

import "net/http"

// Filter is an interface for any component that can decorate an
// http.HandlerFunc with additional behavior, e.g. authentication.
type Filter interface {
	// Decorate returns an http.HandlerFunc that wraps the given
	// http.HandlerFunc with additional behavior.
	Decorate(http.HandlerFunc) http.HandlerFunc
}
