package domain

// Settings is the normalized runtime configuration of a scan.
type Settings struct {
	ManifestPath  string
	LogLevel      string
	Probe         ProbeConfig
	Process       ProcessConfig
	Classifier    ClassifierConfig
	Observability ObservabilityConfig
	Watch         WatchConfig
}

type ProbeConfig struct {
	TimeoutSeconds int
	Concurrency    int
	Mode           ProbeMode
}

type ProcessConfig struct {
	Keywords []string
}

// ClassifierConfig configures the risk classifier. A nil Temperature selects
// the default; zero is a valid, deterministic setting.
type ClassifierConfig struct {
	Provider       string
	Model          string
	APIKey         string
	APIKeyEnvVar   string
	BaseURL        string
	Temperature    *float32
	TimeoutSeconds int
}

type ObservabilityConfig struct {
	ListenAddress string
}

type WatchConfig struct {
	DebounceMillis int
}
