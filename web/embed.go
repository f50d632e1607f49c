// Package web embeds the HTML templates rendered into PDF documents.
package web

import "embed"

// Templates embeds report templates.
//
//go:embed templates/reports/*.html
var Templates embed.FS
