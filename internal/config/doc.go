// Package config loads, normalizes, and validates the TOML configuration
// that drives the pipeline. Defaults cover every field so a missing config
// file still yields a runnable setup (API keys come from the environment).
package config
