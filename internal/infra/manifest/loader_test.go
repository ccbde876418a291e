package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mcpshadow/internal/domain"
)

func TestLoader_Success(t *testing.T) {
	file := writeTempManifest(t, `{
  "platforms": {
    "linux": {
      "clients": [
        {"name": "Codex", "config_paths": ["~/.codex/config.toml"]},
        {"name": "Cursor", "config_paths": []}
      ]
    },
    "darwin": {"clients": []}
  }
}`)

	loader := NewLoader(zap.NewNop())
	got, err := loader.Load(context.Background(), file)
	require.NoError(t, err)

	expect := domain.Manifest{
		Platforms: map[string]domain.PlatformDefinition{
			"linux": {Clients: []domain.ClientDefinition{
				{Name: "Codex", ConfigPaths: []string{"~/.codex/config.toml"}},
				{Name: "Cursor", ConfigPaths: []string{}},
			}},
			"darwin": {Clients: []domain.ClientDefinition{}},
		},
	}
	if diff := cmp.Diff(expect, got); diff != "" {
		t.Fatalf("manifest mismatch (-want +got):\n%s", diff)
	}

	clients, ok := got.Clients("linux")
	require.True(t, ok)
	assert.Len(t, clients, 2)

	_, ok = got.Clients("win32")
	assert.False(t, ok)
}

func TestLoader_Failures(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.json") },
		},
		{
			name: "empty path",
			path: func(t *testing.T) string { return "" },
		},
		{
			name: "invalid json",
			path: func(t *testing.T) string { return writeTempManifest(t, `{"platforms": {`) },
		},
		{
			name: "platforms missing",
			path: func(t *testing.T) string { return writeTempManifest(t, `{"clients": []}`) },
		},
		{
			name: "client without name",
			path: func(t *testing.T) string {
				return writeTempManifest(t, `{"platforms": {"linux": {"clients": [{"config_paths": ["a"]}]}}}`)
			},
		},
		{
			name: "config_paths not strings",
			path: func(t *testing.T) string {
				return writeTempManifest(t, `{"platforms": {"linux": {"clients": [{"name": "x", "config_paths": [1]}]}}}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewLoader(nil)
			_, err := loader.Load(context.Background(), tt.path(t))
			require.Error(t, err)

			code, ok := domain.CodeFrom(err)
			require.True(t, ok)
			assert.Equal(t, domain.CodeManifest, code)
			assert.True(t, domain.IsFatal(err))
		})
	}
}

func TestDefaultManifest_CoversSupportedPlatforms(t *testing.T) {
	m, err := DefaultManifest()
	require.NoError(t, err)

	for _, platform := range []string{domain.PlatformDarwin, domain.PlatformLinux, domain.PlatformWindows} {
		clients, ok := m.Clients(platform)
		require.True(t, ok, platform)
		assert.NotEmpty(t, clients, platform)
	}
}

func TestDefaultManifestBytes_ReturnsCopy(t *testing.T) {
	first := DefaultManifestBytes()
	first[0] = 'x'
	assert.NotEqual(t, first[0], DefaultManifestBytes()[0])
}

func writeTempManifest(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
	return file
}
