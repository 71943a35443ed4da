// Package config loads and validates the coordinator configuration.
//
// Configuration comes from three layers, later ones winning:
//   - Built-in defaults (Default)
//   - An optional YAML file (Load)
//   - Command-line flags and environment variables, applied by the serve command
//
// Durations are kept as strings, as written in the file, and parsed by
// Validate, which reports every problem at once rather than the first one.
//
// Example file:
//
//	host: 0.0.0.0
//	port: 8080
//	public_url: https://party.example.com
//	storage: file
//	data_dir: ./data
//	idle_timeout: 10m
//	cleanup_interval: 1m
//	default_game_type: quiz
//	log_level: info
//	nats:
//	  enabled: true
//	  port: 4222
//	ngrok:
//	  enabled: false
package config
