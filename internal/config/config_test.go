package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCommand returns a command carrying every bound flag.
func testCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("output", "text", "")
	cmd.Flags().String("key-policy", "exact", "")
	cmd.Flags().Bool("strict", false, "")
	cmd.Flags().Duration("interval", 100*time.Millisecond, "")
	cmd.Flags().Duration("timeout", 30*time.Second, "")
	cmd.Flags().StringSlice("marker", nil, "")
	return cmd
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	s, err := Load(testCommand(), writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "text", s.Output)
	assert.Equal(t, "exact", s.KeyPolicy)
	assert.False(t, s.Validate.Strict)
	assert.Equal(t, 100*time.Millisecond, s.URLCheck.Interval)
	assert.Equal(t, 30*time.Second, s.URLCheck.Timeout)
	assert.Equal(t, []string{"cascade"}, s.URLCheck.Markers)
	assert.Equal(t, []GatedHost{{Host: "civitai", Statuses: []int{403, 524}}}, s.URLCheck.GatedHosts)
	assert.Zero(t, s.Fetch.Timeout)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
output: YAML
key_policy: fold
validate:
  strict: true
url_check:
  interval: 1s
  markers: [cascade, flux]
  gated_hosts:
    - host: huggingface
      statuses: [401]
fetch:
  timeout: 10m
`)

	s, err := Load(testCommand(), path)
	require.NoError(t, err)

	assert.Equal(t, "yaml", s.Output)
	assert.Equal(t, "fold", s.KeyPolicy)
	assert.True(t, s.Validate.Strict)
	assert.Equal(t, time.Second, s.URLCheck.Interval)
	assert.Equal(t, 30*time.Second, s.URLCheck.Timeout)
	assert.Equal(t, []string{"cascade", "flux"}, s.URLCheck.Markers)
	assert.Equal(t, []GatedHost{{Host: "huggingface", Statuses: []int{401}}}, s.URLCheck.GatedHosts)
	assert.Equal(t, 10*time.Minute, s.Fetch.Timeout)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, "output: json\nurl_check:\n  interval: 1s\n")

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("HORDE_MODELREF_URL_CHECK_INTERVAL", "2s")

		s, err := Load(testCommand(), path)
		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, s.URLCheck.Interval)
		assert.Equal(t, "json", s.Output)
	})

	t.Run("flag overrides env and file", func(t *testing.T) {
		t.Setenv("HORDE_MODELREF_URL_CHECK_INTERVAL", "2s")

		cmd := testCommand()
		require.NoError(t, cmd.Flags().Set("interval", "0s"))
		require.NoError(t, cmd.Flags().Set("output", "text"))
		require.NoError(t, cmd.Flags().Set("marker", "a,b"))

		s, err := Load(cmd, path)
		require.NoError(t, err)
		assert.Zero(t, s.URLCheck.Interval)
		assert.Equal(t, "text", s.Output)
		assert.Equal(t, []string{"a", "b"}, s.URLCheck.Markers)
	})

	t.Run("unchanged flag does not override file", func(t *testing.T) {
		s, err := Load(testCommand(), path)
		require.NoError(t, err)
		assert.Equal(t, time.Second, s.URLCheck.Interval)
	})
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown output", "output: xml\n"},
		{"unknown key policy", "key_policy: sloppy\n"},
		{"negative interval", "url_check:\n  interval: -1s\n"},
		{"zero timeout", "url_check:\n  timeout: 0s\n"},
		{"gated host without statuses", "url_check:\n  gated_hosts:\n    - host: civitai\n"},
		{"gated host bad status", "url_check:\n  gated_hosts:\n    - host: civitai\n      statuses: [42]\n"},
		{"malformed yaml", "output: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(testCommand(), writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(testCommand(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadWithoutCommand(t *testing.T) {
	s, err := LoadConfig[Settings](nil, Defaults(), writeConfig(t, "output: json\n"), FlagKeys)
	require.NoError(t, err)
	assert.Equal(t, "json", s.Output)
}

func TestPath(t *testing.T) {
	path, err := Path()
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}
	assert.Equal(t, AppName+".yaml", filepath.Base(path))
	assert.Equal(t, AppName, filepath.Base(filepath.Dir(path)))
}
