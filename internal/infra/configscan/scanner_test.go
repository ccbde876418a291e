package configscan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mcpshadow/internal/domain"
)

func TestScanner_TableOfTables(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.toml", `
[mcp_servers.b]
url = "http://localhost:9000"

[mcp_servers.a]
command = "npx"
args = ["-y", "@modelcontextprotocol/server-filesystem", "/tmp"]
env = { TOKEN = "secret" }
`)

	scanner := NewScanner(ScannerOptions{Logger: zap.NewNop()})
	got, err := scanner.Scan(context.Background(), manifestFor("linux", "Codex", path), "linux")
	require.NoError(t, err)

	expect := []domain.ConfirmedServer{
		{
			Client:     "Codex",
			Source:     domain.SourceConfig,
			ServerID:   "a",
			Type:       domain.ServerTypeStdio,
			Command:    strPtr("npx"),
			Args:       []string{"-y", "@modelcontextprotocol/server-filesystem", "/tmp"},
			Env:        map[string]string{"TOKEN": "secret"},
			ConfigPath: path,
		},
		{
			Client:     "Codex",
			Source:     domain.SourceConfig,
			ServerID:   "b",
			Type:       domain.ServerTypeHTTP,
			Args:       []string{},
			URL:        strPtr("http://localhost:9000"),
			Env:        map[string]string{},
			ConfigPath: path,
		},
	}
	if diff := cmp.Diff(expect, got); diff != "" {
		t.Fatalf("servers mismatch (-want +got):\n%s", diff)
	}
}

func TestScanner_ArrayOfTables(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.toml", `
[[mcp_servers]]
name = "remote"
url = "http://x"

[[mcp_servers]]
name = "local"
command = "uvx"
args = ["mcp-server-git"]
`)

	scanner := NewScanner(ScannerOptions{})
	got, err := scanner.Scan(context.Background(), manifestFor("linux", "Codex", path), "linux")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "remote", got[0].ServerID)
	assert.Equal(t, domain.ServerTypeHTTP, got[0].Type)
	assert.Nil(t, got[0].Command)
	assert.Equal(t, "http://x", got[0].Endpoint())

	assert.Equal(t, "local", got[1].ServerID)
	assert.Equal(t, domain.ServerTypeStdio, got[1].Type)
	assert.Nil(t, got[1].URL)
	assert.Equal(t, []string{"mcp-server-git"}, got[1].Args)
	assert.Empty(t, got[1].Endpoint())
}

func TestScanner_JSONConfigUsesMCPServersKey(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "claude_desktop_config.json", `{
  "mcpServers": {
    "github": {"command": "npx", "args": ["-y", "@modelcontextprotocol/server-github"]}
  }
}`)

	scanner := NewScanner(ScannerOptions{})
	got, err := scanner.Scan(context.Background(), manifestFor("darwin", "Claude Desktop", path), "darwin")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "github", got[0].ServerID)
	assert.Equal(t, "Claude Desktop", got[0].Client)
}

func TestScanner_IgnoresOtherShapes(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "absent", content: "model = \"o3\"\n"},
		{name: "scalar", content: "mcp_servers = \"nope\"\n"},
		{name: "empty table", content: "[mcp_servers]\n"},
		{name: "empty array", content: "mcp_servers = []\n"},
		{name: "table of scalars", content: "[mcp_servers]\nfoo = 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "config.toml", tt.content)
			scanner := NewScanner(ScannerOptions{})
			got, err := scanner.Scan(context.Background(), manifestFor("linux", "Codex", path), "linux")
			require.NoError(t, err)
			assert.Empty(t, got)
			assert.NotNil(t, got)
		})
	}
}

func TestScanner_MalformedFileDoesNotStopOtherClients(t *testing.T) {
	dir := t.TempDir()
	broken := writeConfig(t, dir, "broken.toml", "[mcp_servers.a\ncommand = ")
	valid := writeConfig(t, dir, "valid.toml", "[mcp_servers.ok]\ncommand = \"npx\"\n")

	manifest := domain.Manifest{Platforms: map[string]domain.PlatformDefinition{
		"linux": {Clients: []domain.ClientDefinition{
			{Name: "Broken", ConfigPaths: []string{broken}},
			{Name: "Valid", ConfigPaths: []string{valid}},
		}},
	}}

	metrics := &recordingMetrics{}
	scanner := NewScanner(ScannerOptions{Metrics: metrics})
	got, err := scanner.Scan(context.Background(), manifest, "linux")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Valid", got[0].Client)
	assert.Equal(t, "ok", got[0].ServerID)
	assert.Equal(t, []domain.ErrorCode{domain.CodeConfigParse}, metrics.skipped)
}

func TestScanner_MissingPathsAreSkipped(t *testing.T) {
	dir := t.TempDir()
	manifest := manifestFor("linux", "Codex", filepath.Join(dir, "absent.toml"), dir, "$MCPSHADOW_UNSET_TEST_VAR/config.toml")

	scanner := NewScanner(ScannerOptions{})
	got, err := scanner.Scan(context.Background(), manifest, "linux")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScanner_ExpandsHomeAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("MCPSHADOW_TEST_DIR", "nested")

	require.NoError(t, os.MkdirAll(filepath.Join(home, ".codex", "nested"), 0o755))
	writeConfig(t, filepath.Join(home, ".codex"), "config.toml", "[mcp_servers.home]\ncommand = \"a\"\n")
	writeConfig(t, filepath.Join(home, ".codex", "nested"), "config.toml", "[mcp_servers.env]\ncommand = \"b\"\n")

	manifest := manifestFor("linux", "Codex", "~/.codex/config.toml", "~/.codex/${MCPSHADOW_TEST_DIR}/config.toml")

	scanner := NewScanner(ScannerOptions{})
	got, err := scanner.Scan(context.Background(), manifest, "linux")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "home", got[0].ServerID)
	assert.Equal(t, "env", got[1].ServerID)
}

func TestScanner_UnsupportedPlatform(t *testing.T) {
	scanner := NewScanner(ScannerOptions{})
	got, err := scanner.Scan(context.Background(), manifestFor("linux", "Codex"), "plan9")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedPlatform))
	assert.False(t, domain.IsFatal(err))
	assert.Empty(t, got)
}

func TestScanner_Idempotent(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.toml", "[mcp_servers.z]\nurl = \"http://z\"\n[mcp_servers.y]\ncommand = \"y\"\n")
	manifest := manifestFor("linux", "Codex", path)
	scanner := NewScanner(ScannerOptions{})

	first, err := scanner.Scan(context.Background(), manifest, "linux")
	require.NoError(t, err)
	second, err := scanner.Scan(context.Background(), manifest, "linux")
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("rescan differs (-first +second):\n%s", diff)
	}
}

func TestScanner_CanceledContext(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.toml", "[mcp_servers.a]\ncommand = \"a\"\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := NewScanner(ScannerOptions{})
	_, err := scanner.Scan(ctx, manifestFor("linux", "Codex", path), "linux")
	assert.ErrorIs(t, err, context.Canceled)
}

func manifestFor(platform, client string, paths ...string) domain.Manifest {
	return domain.Manifest{Platforms: map[string]domain.PlatformDefinition{
		platform: {Clients: []domain.ClientDefinition{{Name: client, ConfigPaths: paths}}},
	}}
}

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func strPtr(s string) *string {
	return &s
}
