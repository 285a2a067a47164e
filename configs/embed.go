// Package configs provides the embedded configuration template for
// unidocs.
//
// The template is embedded at build time with //go:embed so it ships in
// every distribution, source builds and binary releases alike. It is
// written out by 'unidocs config init' as the starting point for a user
// configuration file.
//
// Configuration precedence (see internal/config Load()):
//  1. Hardcoded defaults (internal/config NewConfig())
//  2. User config (~/.unidocs/config.yaml)
//  3. Environment variables (UNIDOCS_*)
package configs

import _ "embed"

// ExampleConfig is the annotated configuration template.
//
//go:embed config.example.yaml
var ExampleConfig string
