package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

func Test_Config_Load(t *testing.T) {
	cfg, err := Load(strings.NewReader(`
logLevel: debug
server:
  port: 3000
  batchPeriod: 250ms
client:
  clientId: 7
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 3000, cfg.Server.Port)
	require.Equal(t, 250*time.Millisecond, cfg.Server.BatchPeriod)
	require.Equal(t, uint32(7), cfg.Client.ClientId)
	require.Equal(t, Default().Client.ServerURL, cfg.Client.ServerURL, "defaults are kept")

	t.Logf("Config:\n%s", cfg)
}

func Test_Config_LoadFile(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	filePath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(filePath, []byte("server:\n  storeName: docs\n"), 0o600))
	cfg, err = LoadFile(filePath)
	require.NoError(t, err)
	require.Equal(t, "docs", cfg.Server.StoreName)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(strings.NewReader("server: ["))
	require.Error(t, err)
}

func Test_Config_Validate(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "loud"
	cfg.Server.Port = 0
	cfg.Server.BatchPeriod = 0
	cfg.Client.ServerURL = ""

	err := cfg.Validate()
	require.Error(t, err)

	var mErr *multierror.Error
	require.ErrorAs(t, err, &mErr)
	require.Len(t, mErr.Errors, 4)
}
