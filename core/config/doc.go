// Package config provides type-safe environment variable loading with caching
// using Go generics, plus the static registries the auth core depends on:
// remote endpoint paths, subscription plans, and per-plan feature flags.
//
// The package automatically loads .env files on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
//
// Basic usage:
//
//	import "github.com/evalhub/authcore/core/config"
//
//	var api config.APIConfig
//	if err := config.Load(&api); err != nil {
//		log.Fatal(err)
//	}
//
//	// Or panic on failure (useful for startup)
//	config.MustLoad(&api)
//
// # Caching Behavior
//
// Each configuration type is loaded only once per application lifetime:
//
//	var cfg1 config.APIConfig
//	config.Load(&cfg1) // Loads from environment
//
//	var cfg2 config.APIConfig
//	config.Load(&cfg2) // Returns cached value, cfg1 == cfg2
//
// Different types are cached independently.
//
// # Base URL convention
//
// APIConfig.BaseURL carries the FULL prefix of the remote API, including any
// "/api" segment. Endpoint path constants always start with "/auth/..." and
// are joined onto the base URL verbatim; nothing else in the module prepends
// or strips prefixes.
package config
