// Package config loads runtime configuration for the sevr CLI.
//
// Sources, later ones win:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags.
//
// Flags
//
//	-a string   base URL of the sevr API ("http://localhost:3001")
//	-f string   path of the local SQLite cache ("sevr.db")
//	-t string   per-request timeout ("10s")
//
// JSON example:
//
//	{
//	  "server_url": "https://vault.example.com",
//	  "db_path": "/home/me/.sevr.db",
//	  "request_timeout": "15s"
//	}
package config
