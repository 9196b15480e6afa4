// Package config loads runtime configuration from multiple sources (YAML files,
// environment variables, CLI flags) with precedence: CLI flags > YAML config >
// Environment variables > Defaults. It decides where the SUT configuration
// file lives, which variable overrides the platform, and how the optional
// HTTP service behaves.
package config
