// Package resource classifies requests into the resource classes that
// drive gateway caching policy.
package resource

import (
	"path"
	"strings"
)

// Class is a resource class with its own caching policy.
type Class string

const (
	// ClassNavigation is an HTML document request: network-first with
	// a short timeout, offline fallback page on failure.
	ClassNavigation Class = "navigation"
	// ClassAPI is a data endpoint: network-first with a longer
	// timeout, structured JSON offline error on failure.
	ClassAPI Class = "api"
	// ClassStatic is a build-time asset (content-hashed, immutable):
	// cache-first.
	ClassStatic Class = "static"
	// ClassImage is served stale-while-revalidate with a placeholder
	// on total miss.
	ClassImage Class = "images"
	// ClassMedia is large binary media: cache-first with an explicit
	// unavailable response on total miss.
	ClassMedia Class = "media"
	// ClassBypass is framework-internal traffic (hot reload channels,
	// dev probes) that must never be cached or intercepted.
	ClassBypass Class = "bypass"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".svg": true, ".ico": true, ".avif": true,
}

var mediaExts = map[string]bool{
	".mp4": true, ".webm": true, ".mov": true,
	".mp3": true, ".ogg": true, ".wav": true,
}

var staticExts = map[string]bool{
	".js": true, ".mjs": true, ".css": true, ".map": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true,
	".json": true, ".webmanifest": true, ".txt": true,
}

var bypassMarkers = []string{
	"/@vite", "/__vite", "/_next/webpack-hmr", "__webpack_hmr",
	"/sockjs-node", "/__nextjs", "/.well-known/appspecific",
}

// Classify maps a request path and Accept header to a resource class.
func Classify(reqPath, accept string) Class {
	for _, marker := range bypassMarkers {
		if strings.Contains(reqPath, marker) {
			return ClassBypass
		}
	}
	if strings.Contains(reqPath, ".hot-update.") {
		return ClassBypass
	}

	if strings.HasPrefix(reqPath, "/api/") || strings.HasPrefix(reqPath, "/admin/api/") {
		return ClassAPI
	}

	ext := strings.ToLower(path.Ext(reqPath))
	switch {
	case imageExts[ext]:
		return ClassImage
	case mediaExts[ext]:
		return ClassMedia
	}

	if ext == "" || ext == ".html" || strings.Contains(accept, "text/html") {
		return ClassNavigation
	}
	if staticExts[ext] {
		return ClassStatic
	}

	// Unknown extension, not a document: treat as a static asset so it
	// still gets offline coverage.
	return ClassStatic
}
