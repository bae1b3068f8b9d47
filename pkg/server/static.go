package server

import (
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
)

// StaticPrefix is the URL prefix of the static assets.
const StaticPrefix = "/static/"

// CacheControl selects the Cache-Control policy for static assets.
type CacheControl int

const (
	// CacheProduction caches fingerprinted files for a year and everything
	// else for an hour.
	CacheProduction CacheControl = iota

	// CacheNone disables caching, for development.
	CacheNone
)

// staticRelPath returns the cleaned path of a static request relative to
// the asset root. It rejects traversal and absolute-path tricks.
func staticRelPath(rel string) (string, bool) {
	if rel == "" || strings.IndexByte(rel, 0) != -1 || strings.Contains(rel, "\\") {
		return "", false
	}
	// "/static//etc/passwd" leaves a leading slash after the prefix.
	if strings.HasPrefix(rel, "/") {
		return "", false
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}
	clean := path.Clean(rel)
	if !fs.ValidPath(clean) || clean == "." {
		return "", false
	}
	return clean, true
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	rel, ok := staticRelPath(chi.URLParam(r, "*"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	f, err := s.static.Open(rel)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	rs, ok := f.(io.ReadSeeker)
	if !ok {
		http.Error(w, "static asset is not seekable", http.StatusInternalServerError)
		return
	}

	s.applyCacheHeaders(w, rel)
	http.ServeContent(w, r, rel, info.ModTime(), rs)
}

func (s *Server) applyCacheHeaders(w http.ResponseWriter, rel string) {
	switch s.config.StaticCache {
	case CacheNone:
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	case CacheProduction:
		if isFingerprinted(rel) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
		}
	}
}

// isFingerprinted reports whether the file name carries a hex hash before
// its extension, as in "app.a1b2c3d4.css".
func isFingerprinted(rel string) bool {
	parts := strings.Split(path.Base(rel), ".")
	if len(parts) < 3 {
		return false
	}
	hash := parts[len(parts)-2]
	if len(hash) < 8 {
		return false
	}
	for _, c := range hash {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
