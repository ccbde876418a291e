package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"go.uber.org/zap"

	"mcpshadow/internal/domain"
	"mcpshadow/internal/infra/remote"
)

const (
	opFetchTools       = "probe.tools"
	toolsListRequestID = 1
	toolsListPath      = "/tools/list"
	maxResponseBytes   = 8 << 20
)

// ToolsProbe fetches the tool catalog of an HTTP MCP server without
// authenticating to it.
type ToolsProbe struct {
	timeout time.Duration
	mode    domain.ProbeMode
	client  *http.Client
	logger  *zap.Logger
}

type ToolsProbeOptions struct {
	Timeout    time.Duration
	Mode       domain.ProbeMode
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func NewToolsProbe(opts ToolsProbeOptions) *ToolsProbe {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Duration(domain.DefaultProbeTimeoutSeconds) * time.Second
	}
	mode := opts.Mode
	if mode == "" {
		mode = domain.DefaultProbeMode
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &ToolsProbe{
		timeout: timeout,
		mode:    mode,
		client:  client,
		logger:  logger.Named("probe"),
	}
}

func (p *ToolsProbe) Mode() domain.ProbeMode {
	return p.mode
}

// FetchTools never fails: transport errors, non-2xx replies and malformed
// bodies all come back as an error marker.
func (p *ToolsProbe) FetchTools(ctx context.Context, baseURL string) domain.ToolCatalog {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return domain.ToolCatalogError("base url is empty")
	}

	fetch := func(ctx context.Context) (json.RawMessage, error) {
		return p.listViaRPC(ctx, base)
	}
	if p.mode == domain.ProbeModeSession {
		fetch = func(ctx context.Context) (json.RawMessage, error) {
			return p.listViaSession(ctx, base)
		}
	}

	outcome := remote.Do(ctx, opFetchTools, p.timeout, fetch)
	if !outcome.OK() {
		p.logger.Debug("tool catalog unavailable", zap.String("endpoint", base), zap.Error(outcome.Err))
		return domain.ToolCatalogError(outcome.Err.Error())
	}

	catalog := domain.ToolCatalog{Body: outcome.Value}
	if msg, ok := rpcErrorOf(outcome.Value); ok {
		catalog.Err = msg
	}
	return catalog
}

func (p *ToolsProbe) listViaRPC(ctx context.Context, base string) (json.RawMessage, error) {
	wire, err := encodeToolsListRequest()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+toolsListPath, bytes.NewReader(wire))
	if err != nil {
		return nil, remote.Protocol("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, remote.Protocol(fmt.Sprintf("unexpected status %s for url: %s", resp.Status, req.URL), nil)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, bytes.TrimSpace(body)); err != nil {
		return nil, remote.Protocol("malformed response body", err)
	}
	return compact.Bytes(), nil
}

func encodeToolsListRequest() ([]byte, error) {
	id, err := jsonrpc.MakeID(float64(toolsListRequestID))
	if err != nil {
		return nil, fmt.Errorf("build tools/list id: %w", err)
	}
	wire, err := jsonrpc.EncodeMessage(&jsonrpc.Request{
		ID:     id,
		Method: domain.ToolsListMethod,
	})
	if err != nil {
		return nil, fmt.Errorf("encode tools/list: %w", err)
	}
	return wire, nil
}

// rpcErrorOf reports whether body is an object with a top-level error member.
func rpcErrorOf(body json.RawMessage) (string, bool) {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", false
	}
	if len(envelope.Error) == 0 || string(envelope.Error) == "null" {
		return "", false
	}
	return domain.RPCErrorMessage(envelope.Error), true
}
