package probe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mcpshadow/internal/domain"
	"mcpshadow/internal/infra/remote"
)

const clientName = "mcpshadow"

// ClientVersion is reported in the initialize handshake of session probes.
var ClientVersion = "dev"

type sessionReply struct {
	JSONRPC string               `json:"jsonrpc"`
	ID      int                  `json:"id"`
	Result  *mcp.ListToolsResult `json:"result"`
}

// listViaSession performs the MCP initialize handshake over streamable HTTP
// and lists tools, returning the result in the same envelope as a plain
// tools/list reply.
func (p *ToolsProbe) listViaSession(ctx context.Context, endpoint string) (json.RawMessage, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: clientName, Version: ClientVersion}, nil)
	transport := &mcp.StreamableClientTransport{
		Endpoint:   endpoint,
		HTTPClient: p.client,
		MaxRetries: -1,
	}

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect streamable http: %w", err)
	}
	defer func() { _ = session.Close() }()

	result, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	body, err := json.Marshal(sessionReply{
		JSONRPC: "2.0",
		ID:      toolsListRequestID,
		Result:  result,
	})
	if err != nil {
		return nil, remote.Protocol("encode tools/list result", err)
	}
	return body, nil
}

var _ domain.ToolFetcher = (*ToolsProbe)(nil)
