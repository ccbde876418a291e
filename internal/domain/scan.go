package domain

import "context"

// ToolFetcher retrieves the tool catalog advertised at a base URL.
// Failures are returned as an error marker, never as a Go error.
type ToolFetcher interface {
	FetchTools(ctx context.Context, baseURL string) ToolCatalog
}

// Classifier assesses the risk of a server given its tool catalog.
// subject is a ConfirmedServer or CandidateServer value.
type Classifier interface {
	Classify(ctx context.Context, subject any, tools ToolCatalog) Assessment
}

// ConfigScanner emits servers declared in client configuration files.
type ConfigScanner interface {
	Scan(ctx context.Context, manifest Manifest, platform string) ([]ConfirmedServer, error)
}

// ProcessScanner emits running processes that look like MCP servers.
type ProcessScanner interface {
	Scan(ctx context.Context) ([]CandidateServer, error)
}

// ManifestLoader reads the platform manifest.
type ManifestLoader interface {
	Load(ctx context.Context, path string) (Manifest, error)
}
