// Package config loads and validates doorgate configuration.
//
// Configuration comes from a YAML file with environment variable
// overrides (DOORGATE_* pattern). Defaults are applied first, then the
// file, then the environment, and the result is validated before any
// component sees it. Secrets (MQTT password, InfluxDB token) are
// normally supplied through the environment rather than the file.
package config
