package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Manifest maps a platform key to the MCP clients known on that platform.
type Manifest struct {
	Platforms map[string]PlatformDefinition `json:"platforms"`
}

type PlatformDefinition struct {
	Clients []ClientDefinition `json:"clients"`
}

// ClientDefinition names a client application and the config files it may own.
// Paths may contain environment variables and a leading "~".
type ClientDefinition struct {
	Name        string   `json:"name"`
	ConfigPaths []string `json:"config_paths"`
}

// Clients returns the clients declared for platform and whether the platform is declared at all.
func (m Manifest) Clients(platform string) ([]ClientDefinition, bool) {
	def, ok := m.Platforms[platform]
	if !ok {
		return nil, false
	}
	return def.Clients, true
}

// ConfirmedServer is an MCP server declared in a client configuration file.
type ConfirmedServer struct {
	Client           string            `json:"client"`
	Source           string            `json:"source"`
	ServerID         string            `json:"server_id"`
	Type             string            `json:"type"`
	Command          *string           `json:"command"`
	Args             []string          `json:"args"`
	URL              *string           `json:"url"`
	Env              map[string]string `json:"env"`
	ConfigPath       string            `json:"config_path"`
	ToolsFound       *ToolCatalog      `json:"tools_found,omitempty"`
	SecurityAnalysis *Assessment       `json:"security_analysis,omitempty"`
}

// NewConfirmedServer builds a record and derives its transport type from url.
func NewConfirmedServer(client, configPath, serverID string, command, url *string, args []string, env map[string]string) ConfirmedServer {
	if args == nil {
		args = []string{}
	}
	if env == nil {
		env = map[string]string{}
	}
	return ConfirmedServer{
		Client:     client,
		Source:     SourceConfig,
		ServerID:   serverID,
		Type:       ServerTypeFor(url),
		Command:    command,
		Args:       args,
		URL:        url,
		Env:        env,
		ConfigPath: configPath,
	}
}

// ServerTypeFor returns "http" iff url is non-empty, "stdio" otherwise.
func ServerTypeFor(url *string) string {
	if url != nil && strings.TrimSpace(*url) != "" {
		return ServerTypeHTTP
	}
	return ServerTypeStdio
}

// Endpoint returns the url of an http server, or "" when there is nothing to probe.
func (s ConfirmedServer) Endpoint() string {
	if s.Type != ServerTypeHTTP || s.URL == nil {
		return ""
	}
	return strings.TrimSpace(*s.URL)
}

// CandidateServer is a running process that looks like an MCP server.
type CandidateServer struct {
	PID              int32        `json:"pid"`
	Source           string       `json:"source"`
	ProcessName      string       `json:"process_name"`
	Command          string       `json:"command"`
	Args             []string     `json:"args"`
	ListeningPorts   []int        `json:"listening_ports"`
	ToolsFound       *ToolCatalog `json:"tools_found,omitempty"`
	SecurityAnalysis *Assessment  `json:"security_analysis,omitempty"`
}

// Report is the aggregate produced by one scan.
type Report struct {
	MCPServersDetected         []ConfirmedServer `json:"mcp_servers_detected"`
	PossibleMCPServersDetected []CandidateServer `json:"possible_mcp_servers_detected"`
}

func NewReport() Report {
	return Report{
		MCPServersDetected:         []ConfirmedServer{},
		PossibleMCPServersDetected: []CandidateServer{},
	}
}

func (r Report) Empty() bool {
	return len(r.MCPServersDetected) == 0 && len(r.PossibleMCPServersDetected) == 0
}

// ToolCatalog is the body of a tools/list reply, or an error marker.
type ToolCatalog struct {
	Body json.RawMessage
	Err  string
}

func ToolCatalogError(msg string) ToolCatalog {
	if strings.TrimSpace(msg) == "" {
		msg = "unknown error"
	}
	return ToolCatalog{Err: msg}
}

// Failed reports whether the catalog is an error marker.
func (c ToolCatalog) Failed() bool {
	return c.Err != ""
}

func (c ToolCatalog) MarshalJSON() ([]byte, error) {
	if len(c.Body) > 0 {
		return c.Body, nil
	}
	return json.Marshal(map[string]string{"error": c.Err})
}

func (c *ToolCatalog) UnmarshalJSON(data []byte) error {
	var probe struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if len(probe.Error) == 0 || bytes.Equal(probe.Error, []byte("null")) {
		c.Body = append(json.RawMessage(nil), data...)
		c.Err = ""
		return nil
	}
	var msg string
	if err := json.Unmarshal(probe.Error, &msg); err == nil {
		var only map[string]json.RawMessage
		if err := json.Unmarshal(data, &only); err == nil && len(only) == 1 {
			*c = ToolCatalogError(msg)
			return nil
		}
	}
	c.Body = append(json.RawMessage(nil), data...)
	c.Err = RPCErrorMessage(probe.Error)
	return nil
}

// RPCErrorMessage extracts a readable message from a JSON-RPC error member.
func RPCErrorMessage(raw json.RawMessage) string {
	var rpcErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &rpcErr); err == nil && rpcErr.Message != "" {
		return rpcErr.Message
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil && msg != "" {
		return msg
	}
	return string(raw)
}

// Assessment is the opaque reply of the security classifier.
// Structured holds a JSON object when the reply parsed as one; Text holds anything else.
type Assessment struct {
	Text       string
	Structured json.RawMessage
	Failed     bool
}

// NewAssessment interprets a classifier reply, unwrapping a fenced JSON block if present.
func NewAssessment(reply string) Assessment {
	trimmed := strings.TrimSpace(reply)
	candidate := stripCodeFence(trimmed)
	if strings.HasPrefix(candidate, "{") && json.Valid([]byte(candidate)) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(candidate)); err == nil {
			return Assessment{Structured: buf.Bytes()}
		}
	}
	return Assessment{Text: trimmed}
}

func AssessmentFailure(msg string) Assessment {
	return Assessment{Text: msg, Failed: true}
}

func (a Assessment) MarshalJSON() ([]byte, error) {
	if len(a.Structured) > 0 {
		return a.Structured, nil
	}
	return json.Marshal(a.Text)
}

func (a *Assessment) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*a = Assessment{Text: text}
		return nil
	}
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Assessment{Structured: append(json.RawMessage(nil), data...)}
	return nil
}

func stripCodeFence(value string) string {
	if !strings.HasPrefix(value, "```") {
		return value
	}
	body := strings.TrimPrefix(value, "```")
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		body = body[idx+1:]
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
