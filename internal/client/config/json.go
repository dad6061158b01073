package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/mediavault/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. After
// parsing, values are copied into the runtime Config.
type JsonConfig struct {
	ServerEndpointAddr string `json:"server_endpoint_addr"`
	KeyDir             string `json:"key_dir"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c or -config flags via flagx.JsonConfigFlags(); when
// empty, nothing is loaded. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	cfg.KeyDir = jc.KeyDir
}
