// Package web embeds the built frontend (dist/) and serves it as a single-page
// application. Only paths in the wizard route table render the app; anything
// else gets the not-found view with a 404 status.
package web

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ashureev/startup-navigator/internal/wizard"
)

//go:embed all:dist
var distFS embed.FS

// SPAHandler returns an http.Handler that serves the embedded frontend.
// Static files under dist/ are served as-is, known client routes get
// index.html and every other path gets 404.html.
func SPAHandler() http.Handler {
	subFS, err := fs.Sub(distFS, "dist")
	if err != nil {
		panic("web: failed to create sub filesystem: " + err.Error())
	}
	return newSPAHandler(subFS)
}

func newSPAHandler(subFS fs.FS) http.Handler {
	fileServer := http.FileServer(http.FS(subFS))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := wizard.LookupRoute(normalizePath(r.URL.Path)); ok {
			serveFile(w, subFS, "index.html", http.StatusOK)
			return
		}

		path := strings.TrimPrefix(r.URL.Path, "/")
		if path != "" && !strings.HasSuffix(path, "/") {
			if f, err := subFS.Open(path); err == nil {
				if closeErr := f.Close(); closeErr != nil {
					slog.Debug("web: failed to close embedded file", "path", path, "error", closeErr)
				}
				fileServer.ServeHTTP(w, r)
				return
			}
		}

		serveFile(w, subFS, "404.html", http.StatusNotFound)
	})
}

// normalizePath drops a trailing slash so "/intro/" matches "/intro".
func normalizePath(p string) string {
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

func serveFile(w http.ResponseWriter, fsys fs.FS, name string, status int) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		slog.Error("web: missing embedded page", "page", name, "error", err)
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
