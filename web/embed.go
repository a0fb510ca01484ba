// Package web embeds the single-page UI.
package web

import _ "embed"

// IndexHTML holds the single-page UI served at the root route.
//
//go:embed index.html
var IndexHTML []byte
