package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// SiteHandler serves the generated site from outputDir. Directory URLs
// resolve to their index.html; unknown paths get the generated 404 page
// with a 404 status instead of the stock http.FileServer response.
func SiteHandler(outputDir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(filepath.Clean("/"+r.URL.Path), "/")
		target := filepath.Join(outputDir, rel)

		info, err := os.Stat(target)
		if err == nil && info.IsDir() {
			target = filepath.Join(target, "index.html")
			info, err = os.Stat(target)
		}
		if err != nil || info.IsDir() {
			notFound := filepath.Join(outputDir, "404.html")
			if _, nfErr := os.Stat(notFound); nfErr == nil {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusNotFound)
				data, _ := os.ReadFile(notFound)
				_, _ = w.Write(data)
				return
			}
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, target)
	})
}
