// Package config loads and validates application configuration from
// environment variables (POSTPULSE_ prefix) and an optional YAML file.
// Environment values take precedence over file values.
package config
