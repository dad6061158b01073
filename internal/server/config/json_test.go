package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_LoadsAllFields(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, map[string]any{
		"endpoint_addr_http":              "www.example:9000",
		"database_dsn":                    "postgres://example/vault",
		"secret_key":                      "my_secret_key",
		"access_token_validity_duration":  "1m",
		"refresh_token_validity_duration": "3m",
		"blob_dir":                        "/var/lib/vault/blobs",
		"s3_root_user":                    "user",
		"s3_root_password":                "password",
		"s3_bucket":                       "bucket",
		"s3_region":                       "region",
		"s3_base_endpoint":                "base_endpoint",
	})

	os.Args = []string{"testbin", "-config", path}

	cfg := &Config{}
	parseJson(cfg)

	assert.Equal(t, "www.example:9000", cfg.EndpointAddrHTTP)
	assert.Equal(t, "postgres://example/vault", cfg.DatabaseDSN)
	assert.Equal(t, "my_secret_key", cfg.SecretKey)
	assert.Equal(t, 1*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 3*time.Minute, cfg.RefreshTokenValidityDuration)
	assert.Equal(t, "/var/lib/vault/blobs", cfg.BlobDir)
	assert.Equal(t, "user", cfg.S3RootUser)
	assert.Equal(t, "password", cfg.S3RootPassword)
	assert.Equal(t, "bucket", cfg.S3Bucket)
	assert.Equal(t, "region", cfg.S3Region)
	assert.Equal(t, "base_endpoint", cfg.S3BaseEndpoint)
}

func Test_parseJson_NoFileConfigured(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin"}

	cfg := &Config{}
	cfg.LoadDefaults()
	before := *cfg
	parseJson(cfg)

	assert.Equal(t, before, *cfg)
}
