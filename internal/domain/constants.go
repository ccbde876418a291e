package domain

const (
	PlatformDarwin  = "darwin"
	PlatformLinux   = "linux"
	PlatformWindows = "win32"
	PlatformUnknown = "unknown"

	SourceConfig  = "Config"
	SourceProcess = "Process"

	ServerTypeHTTP  = "http"
	ServerTypeStdio = "stdio"

	ToolsListMethod = "tools/list"
)

const (
	DefaultManifestPath               = "config.json"
	DefaultProbeTimeoutSeconds        = 10
	DefaultProbeConcurrency           = 8
	DefaultProbeMode                  = ProbeModeRPC
	DefaultClassifierTimeoutSeconds   = 30
	DefaultClassifierBaseURL          = "https://api.ollama.com/v1"
	DefaultClassifierModel            = "llama3.1:8b"
	DefaultClassifierAPIKeyEnvVar     = "OLLAMA_API_KEY"
	DefaultClassifierTemperature      = 0.2
	DefaultObservabilityListenAddress = "127.0.0.1:9464"
	DefaultWatchDebounceMillis        = 500
	DefaultLogLevel                   = "info"
)

// ProbeMode selects how the tool catalog of an HTTP server is fetched.
type ProbeMode string

const (
	// ProbeModeRPC posts a single tools/list request to {base}/tools/list.
	ProbeModeRPC ProbeMode = "rpc"
	// ProbeModeSession opens a streamable HTTP MCP session and lists tools after initialize.
	ProbeModeSession ProbeMode = "session"
)

// DefaultProcessKeywords flags command lines that look like MCP servers.
// The list is a heuristic: false positives are acceptable, misses are the real risk.
var DefaultProcessKeywords = []string{"mcp", "modelcontextprotocol", "npx", "uvx"}
