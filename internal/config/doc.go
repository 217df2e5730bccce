// Package config handles configuration loading for bizpilot.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from BIZPILOT_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/bizpilot/config.yaml
//  3. ~/.config/bizpilot/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	content:
//	  api_key: "${BIZPILOT_CONTENT_KEY}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	content:
//	  json_timeout: "20s"
//	  text_timeout: "30s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Local mirror database:
//
//	database:
//	  path: "~/.local/share/bizpilot/bizpilot.db"
//
// Remote document store (leave base_url empty for offline mode):
//
//	remote:
//	  base_url: "https://docs.example.com"
//	  token: "${BIZPILOT_REMOTE_TOKEN}"
//	  timeout: "15s"
//
// Generative content API:
//
//	content:
//	  endpoint: ""                             # empty selects the default
//	  api_key: "${BIZPILOT_CONTENT_KEY}"
//	  json_timeout: "20s"
//	  text_timeout: "30s"
//
// Analysis orchestration:
//
//	analysis:
//	  fallback_timeout: "12s"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - Database path presence
//   - Remote token presence when a base URL is set
//   - Content API key presence
//   - Duration format validity
package config
