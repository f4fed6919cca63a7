// Package webui exposes the embedded front end.
// It lives at the module root so it can embed the sibling "web/" directory;
// internal/server/embed.go serves it.
package webui

import "embed"

// FS holds web/index.html (an html/template) and the web/static asset tree.
//
//go:embed web
var FS embed.FS
