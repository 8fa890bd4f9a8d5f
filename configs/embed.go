// Package configs embeds the configuration template written by
// `booksearch config init`.
//
// Configuration hierarchy (see internal/config Load):
//  1. Hardcoded defaults (config.NewConfig)
//  2. User config (~/.config/booksearch/config.yaml)
//  3. Project config (.booksearch.yaml)
//  4. Environment variables (BOOKSEARCH_*)
package configs

import _ "embed"

// ConfigTemplate is a commented configuration file listing every option at
// its default value.
//
//go:embed booksearch.example.yaml
var ConfigTemplate string
