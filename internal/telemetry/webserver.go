package telemetry

import (
	"context"
	"embed"
	"io"
	"io/fs"
	"log"
	"net/http"
	"time"
)

//go:embed static/*
var staticFiles embed.FS

// WebServer exposes telemetry history and live updates over HTTP.
type WebServer struct {
	srv *http.Server
	hub *Hub
}

// NewWebServer builds an HTTP server serving the embedded dashboard, history
// and live endpoints.
func NewWebServer(addr string, hub *Hub) *WebServer {
	mux := http.NewServeMux()
	mux.Handle("/static/", http.FileServer(http.FS(staticFiles)))
	mux.HandleFunc("/api/history", hub.handleHistory)
	mux.HandleFunc("/api/live", hub.handleLive)
	mux.HandleFunc("/api/config", hub.handleGetConfig)
	mux.HandleFunc("/api/config/update", hub.handleSetConfig)
	mux.HandleFunc("/settings", func(w http.ResponseWriter, r *http.Request) {
		serveFSFile(w, r, staticFiles, "static/settings.html")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		serveFSFile(w, r, staticFiles, "static/index.html")
	})

	return &WebServer{
		hub: hub,
		srv: &http.Server{Addr: addr, Handler: mux},
	}
}

// serveFSFile serves a single named file out of fsys, equivalent to
// http.ServeFileFS (Go 1.22+) which is unavailable on this toolchain.
func serveFSFile(w http.ResponseWriter, r *http.Request, fsys fs.FS, name string) {
	f, err := fsys.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rs, ok := f.(io.ReadSeeker)
	if !ok {
		http.Error(w, "file does not support seeking", http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), rs)
}

// Start begins listening and shuts down when the context is canceled.
func (w *WebServer) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := w.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("telemetry web server shutdown: %v", err)
		}
	}()

	if err := w.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("telemetry web server error: %v", err)
	}
}
