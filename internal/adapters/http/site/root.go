// Package site handles the embedded leaderboard viewer site.
package site

import (
	"context"
	"net/http"
)

// Register attaches the embedded viewer site routes to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	// Serve the embedded viewer site at root /
	files := http.FileServer(FS())
	mux.Handle("/", files)
}
