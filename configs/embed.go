// Package configs provides embedded example files for microgen.
//
// Templates are embedded at build time so they ship with every binary:
//   - microgen.example.yaml: the domain blueprint written by `microgen init`
//     (placeholders are rendered with the project's context)
//   - user-config.example.yaml: tool settings, printed by `microgen config init`
//
// Configuration Hierarchy (see internal/config/config.go Load()):
//  1. Hardcoded defaults (internal/config/config.go NewConfig())
//  2. User config (~/.config/microgen/config.yaml)
//  3. Project config (.microgen.yaml)
//  4. Environment variables (MICROGEN_*)
package configs

import _ "embed"

// BlueprintTemplate is the starting microgen.yaml for a new project.
//
//go:embed microgen.example.yaml
var BlueprintTemplate string

// UserConfigTemplate documents every tool setting with its default.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string
