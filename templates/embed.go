// Package templates embeds the template tree used to generate projects.
//
// Each top-level directory is one module's template group (init, es,
// session, saga, task, projection). Template IDs are slash paths relative to
// this directory, for example "es/bus.go.tmpl". A directory passed with
// --template-root must follow the same layout.
package templates

import "embed"

// FS holds every template group.
//
//go:embed init es session saga task projection
var FS embed.FS
