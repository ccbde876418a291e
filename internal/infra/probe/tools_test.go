package probe

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpshadow/internal/domain"
)

const toolsReply = `{"jsonrpc":"2.0","id":1,"result":{"tools":[{"name":"read_file","inputSchema":{"type":"object"}}]}}`

func TestToolsProbe_Success(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tools/list", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(toolsReply))
	}))
	t.Cleanup(server.Close)

	probe := NewToolsProbe(ToolsProbeOptions{})
	catalog := probe.FetchTools(context.Background(), server.URL+"/")

	require.False(t, catalog.Failed())
	assert.JSONEq(t, toolsReply, string(catalog.Body))
	assert.Equal(t, int32(1), hits.Load())
}

func TestToolsProbe_ErrorMarkers(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			want: "500",
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.NotFound(w, nil)
			},
			want: "404",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"jsonrpc": "2.0", "result": `))
			},
			want: "malformed response body",
		},
		{
			name: "html body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html>hello</html>`))
			},
			want: "malformed response body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			t.Cleanup(server.Close)

			catalog := NewToolsProbe(ToolsProbeOptions{}).FetchTools(context.Background(), server.URL)
			require.True(t, catalog.Failed())
			assert.Contains(t, catalog.Err, tt.want)

			encoded, err := json.Marshal(catalog)
			require.NoError(t, err)
			var marker map[string]string
			require.NoError(t, json.Unmarshal(encoded, &marker))
			assert.NotEmpty(t, marker["error"])
		})
	}
}

func TestToolsProbe_JSONRPCErrorIsMarker(t *testing.T) {
	reply := `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"Method not found"}}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)

	catalog := NewToolsProbe(ToolsProbeOptions{}).FetchTools(context.Background(), server.URL)
	require.True(t, catalog.Failed())
	assert.Equal(t, "Method not found", catalog.Err)
	assert.JSONEq(t, reply, string(catalog.Body))
}

func TestToolsProbe_Unreachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	catalog := NewToolsProbe(ToolsProbeOptions{Timeout: time.Second}).FetchTools(context.Background(), "http://"+addr)
	require.True(t, catalog.Failed())
	assert.NotEmpty(t, catalog.Err)
	assert.Contains(t, catalog.Err, string(domain.CodeNetwork))
}

func TestToolsProbe_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	started := time.Now()
	catalog := NewToolsProbe(ToolsProbeOptions{Timeout: 50 * time.Millisecond}).FetchTools(context.Background(), server.URL)
	require.True(t, catalog.Failed())
	assert.Contains(t, catalog.Err, string(domain.CodeDeadlineExceeded))
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestToolsProbe_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	catalog := NewToolsProbe(ToolsProbeOptions{}).FetchTools(ctx, "http://127.0.0.1:1")
	require.True(t, catalog.Failed())
	assert.Contains(t, catalog.Err, string(domain.CodeCanceled))
}

func TestToolsProbe_EmptyBaseURL(t *testing.T) {
	catalog := NewToolsProbe(ToolsProbeOptions{}).FetchTools(context.Background(), "  ")
	require.True(t, catalog.Failed())
}

func TestToolsProbe_SessionMode(t *testing.T) {
	server := mcp.NewServer(&mcp.Implementation{Name: "remote", Version: "0.1.0"}, nil)
	server.AddTool(&mcp.Tool{
		Name:        "run_shell",
		Description: "runs a shell command",
		InputSchema: map[string]any{"type": "object"},
	}, func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{}, nil
	})
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})

	httpServer := httptest.NewServer(handler)
	t.Cleanup(httpServer.Close)

	probe := NewToolsProbe(ToolsProbeOptions{Mode: domain.ProbeModeSession, Timeout: 5 * time.Second})
	assert.Equal(t, domain.ProbeModeSession, probe.Mode())

	catalog := probe.FetchTools(context.Background(), httpServer.URL)
	require.False(t, catalog.Failed(), catalog.Err)

	var reply struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(catalog.Body, &reply))
	require.Len(t, reply.Result.Tools, 1)
	assert.Equal(t, "run_shell", reply.Result.Tools[0].Name)
}

func TestEncodeToolsListRequest(t *testing.T) {
	wire, err := encodeToolsListRequest()
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`, string(wire))
}
