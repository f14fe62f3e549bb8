package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/sevr/internal/flagx"
	"github.com/dmitrijs2005/sevr/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file.
type JsonConfig struct {
	ServerURL      string         `json:"server_url"`
	DBPath         string         `json:"db_path"`
	RequestTimeout timex.Duration `json:"request_timeout"`
}

func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	if c.ServerURL != "" {
		cfg.ServerURL = c.ServerURL
	}
	if c.DBPath != "" {
		cfg.DBPath = c.DBPath
	}
	if c.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = c.RequestTimeout.Duration
	}
	return nil
}
