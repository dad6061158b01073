// Package config handles configuration for the MediaVault CLI client.
package config

// Config holds runtime settings for the CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend HTTP API.
//   - KeyDir: directory holding the encrypted private key files.
type Config struct {
	ServerEndpointAddr string
	KeyDir             string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.KeyDir = ".mediavault"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
