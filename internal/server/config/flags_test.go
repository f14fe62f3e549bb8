package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected *Config
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret",
				"-t", "1m", "-r", "3d", "-admins", "a@x.com,b@x.com",
				"-origins", "https://sevr.app", "-l", "debug",
				"-vault", "s3", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
				"-unrelated", "x",
			},
			expected: &Config{
				HTTPAddr:                     "127.0.0.1:9090",
				DatabaseDSN:                  "db",
				SecretKey:                    "secret",
				AccessTokenValidityDuration:  time.Minute,
				RefreshTokenValidityDuration: 72 * time.Hour,
				AdminEmails:                  []string{"a@x.com", "b@x.com"},
				AllowedOrigins:               []string{"https://sevr.app"},
				LogLevel:                     "debug",
				VaultBackend:                 VaultBackendS3,
				S3Bucket:                     "bucket",
				S3Region:                     "us-west-1",
				S3BaseEndpoint:               "http://endpoint",
			},
		},
		{
			name:     "no flags",
			args:     nil,
			expected: &Config{},
		},
		{
			name:    "bad duration",
			args:    []string{"-r", "30x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			err := parseFlags(cfg, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}
