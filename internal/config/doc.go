// Package config loads the surfspot configuration.
//
// The [Config] struct is read from a YAML file, completed with defaults,
// and overlaid with environment variables. Credentials never live in the
// file: they are collected into an immutable [Session] from the
// environment, optionally seeded from a .env file.
package config
