package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/linkkeeper/pkg/config"
)

func TestClientConfig_Defaults(t *testing.T) {
	cfg := NewDefaultClientConfig()
	require.NoError(t, cfg.Validate())

	assert.NotEmpty(t, cfg.DataDir)
	assert.False(t, cfg.Sync.Enabled, "sync is opt-in")
	assert.Equal(t, filepath.Join(cfg.DataDir, "document.snapshot"), cfg.SnapshotPath())
	assert.Equal(t, filepath.Join(cfg.DataDir, "identity"), cfg.IdentityPath())
}

func TestSyncConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SyncConfig
		wantErr bool
	}{
		{
			name:    "disabled needs no url",
			cfg:     SyncConfig{Enabled: false},
			wantErr: false,
		},
		{
			name:    "enabled with url",
			cfg:     SyncConfig{Enabled: true, RelayURL: "ws://relay.test/sync"},
			wantErr: false,
		},
		{
			name:    "enabled without url",
			cfg:     SyncConfig{Enabled: true},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRelayConfig_Validate(t *testing.T) {
	cfg := NewDefaultRelayConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.HTTP.Address())

	cfg.HTTP.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = NewDefaultRelayConfig()
	cfg.SQLite.Path = ""
	assert.Error(t, cfg.Validate())
}

func TestLoad_YAMLWithEnvExpansion(t *testing.T) {
	t.Setenv("LINKKEEPER_TEST_DIR", "/tmp/linkkeeper-test")

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
data_dir: ${LINKKEEPER_TEST_DIR}
sync:
  enabled: true
  relay_url: ws://relay.test/sync
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg := NewDefaultClientConfig()
	require.NoError(t, config.Load(path, cfg))

	assert.Equal(t, "/tmp/linkkeeper-test", cfg.DataDir)
	assert.True(t, cfg.Sync.Enabled)
	assert.Equal(t, "ws://relay.test/sync", cfg.Sync.RelayURL)
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg := NewDefaultClientConfig()
	err := config.LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"), cfg)
	require.NoError(t, err, "missing config file falls back to defaults")
	assert.Equal(t, NewDefaultClientConfig().DataDir, cfg.DataDir)
}
