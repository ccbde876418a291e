package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"mcpshadow/internal/domain"
)

const settingsEnvPrefix = "MCPSHADOW"

// SettingsOptions selects where settings come from. Overrides win over the
// settings file and the environment; they carry explicitly set CLI flags.
type SettingsOptions struct {
	Path      string
	Overrides map[string]any
}

type rawSettings struct {
	Manifest      string                 `mapstructure:"manifest"`
	LogLevel      string                 `mapstructure:"logLevel"`
	Probe         rawProbeConfig         `mapstructure:"probe"`
	Process       rawProcessConfig       `mapstructure:"process"`
	Classifier    rawClassifierConfig    `mapstructure:"classifier"`
	Observability rawObservabilityConfig `mapstructure:"observability"`
	Watch         rawWatchConfig         `mapstructure:"watch"`
}

type rawProbeConfig struct {
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
	Concurrency    int    `mapstructure:"concurrency"`
	Mode           string `mapstructure:"mode"`
}

type rawProcessConfig struct {
	Keywords []string `mapstructure:"keywords"`
}

type rawClassifierConfig struct {
	Provider       string  `mapstructure:"provider"`
	Model          string  `mapstructure:"model"`
	APIKey         string  `mapstructure:"apiKey"`
	APIKeyEnvVar   string  `mapstructure:"apiKeyEnvVar"`
	BaseURL        string  `mapstructure:"baseURL"`
	Temperature    float32 `mapstructure:"temperature"`
	TimeoutSeconds int     `mapstructure:"timeoutSeconds"`
}

type rawObservabilityConfig struct {
	ListenAddress string `mapstructure:"listenAddress"`
}

type rawWatchConfig struct {
	DebounceMillis int `mapstructure:"debounceMillis"`
}

func newSettingsViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(settingsEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setSettingsDefaults(v)
	return v
}

func setSettingsDefaults(v *viper.Viper) {
	v.SetDefault("manifest", domain.DefaultManifestPath)
	v.SetDefault("logLevel", domain.DefaultLogLevel)
	v.SetDefault("probe.timeoutSeconds", domain.DefaultProbeTimeoutSeconds)
	v.SetDefault("probe.concurrency", domain.DefaultProbeConcurrency)
	v.SetDefault("probe.mode", string(domain.DefaultProbeMode))
	v.SetDefault("process.keywords", domain.DefaultProcessKeywords)
	v.SetDefault("classifier.provider", "openai")
	v.SetDefault("classifier.model", domain.DefaultClassifierModel)
	v.SetDefault("classifier.apiKey", "")
	v.SetDefault("classifier.apiKeyEnvVar", domain.DefaultClassifierAPIKeyEnvVar)
	v.SetDefault("classifier.baseURL", domain.DefaultClassifierBaseURL)
	v.SetDefault("classifier.temperature", domain.DefaultClassifierTemperature)
	v.SetDefault("classifier.timeoutSeconds", domain.DefaultClassifierTimeoutSeconds)
	v.SetDefault("observability.listenAddress", domain.DefaultObservabilityListenAddress)
	v.SetDefault("watch.debounceMillis", domain.DefaultWatchDebounceMillis)
}

// LoadSettings resolves settings from defaults, MCPSHADOW_* environment
// variables, an optional settings file and explicit overrides.
func LoadSettings(opts SettingsOptions) (domain.Settings, error) {
	v := newSettingsViper()

	if path := strings.TrimSpace(opts.Path); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return domain.Settings{}, fmt.Errorf("read settings %s: %w", path, err)
		}
	}
	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var raw rawSettings
	if err := v.Unmarshal(&raw); err != nil {
		return domain.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return normalizeSettings(raw)
}

func normalizeSettings(raw rawSettings) (domain.Settings, error) {
	var errs []error

	mode := domain.ProbeMode(strings.ToLower(strings.TrimSpace(raw.Probe.Mode)))
	switch mode {
	case domain.ProbeModeRPC, domain.ProbeModeSession:
	case "":
		mode = domain.DefaultProbeMode
	default:
		errs = append(errs, fmt.Errorf("probe.mode must be %q or %q, got %q", domain.ProbeModeRPC, domain.ProbeModeSession, raw.Probe.Mode))
	}
	if raw.Probe.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("probe.timeoutSeconds must not be negative"))
	}
	if raw.Probe.Concurrency < 0 {
		errs = append(errs, errors.New("probe.concurrency must not be negative"))
	}
	if raw.Classifier.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("classifier.timeoutSeconds must not be negative"))
	}
	if raw.Classifier.Temperature < 0 {
		errs = append(errs, errors.New("classifier.temperature must not be negative"))
	}
	if raw.Watch.DebounceMillis < 0 {
		errs = append(errs, errors.New("watch.debounceMillis must not be negative"))
	}
	if len(errs) > 0 {
		return domain.Settings{}, errors.Join(errs...)
	}

	keywords := make([]string, 0, len(raw.Process.Keywords))
	for _, keyword := range raw.Process.Keywords {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}

	temperature := raw.Classifier.Temperature

	manifest := strings.TrimSpace(raw.Manifest)
	if manifest == "" {
		manifest = domain.DefaultManifestPath
	}
	logLevel := strings.TrimSpace(raw.LogLevel)
	if logLevel == "" {
		logLevel = domain.DefaultLogLevel
	}

	return domain.Settings{
		ManifestPath: manifest,
		LogLevel:     logLevel,
		Probe: domain.ProbeConfig{
			TimeoutSeconds: raw.Probe.TimeoutSeconds,
			Concurrency:    raw.Probe.Concurrency,
			Mode:           mode,
		},
		Process: domain.ProcessConfig{Keywords: keywords},
		Classifier: domain.ClassifierConfig{
			Provider:       strings.TrimSpace(raw.Classifier.Provider),
			Model:          strings.TrimSpace(raw.Classifier.Model),
			APIKey:         strings.TrimSpace(raw.Classifier.APIKey),
			APIKeyEnvVar:   strings.TrimSpace(raw.Classifier.APIKeyEnvVar),
			BaseURL:        strings.TrimSpace(raw.Classifier.BaseURL),
			Temperature:    &temperature,
			TimeoutSeconds: raw.Classifier.TimeoutSeconds,
		},
		Observability: domain.ObservabilityConfig{ListenAddress: strings.TrimSpace(raw.Observability.ListenAddress)},
		Watch:         domain.WatchConfig{DebounceMillis: raw.Watch.DebounceMillis},
	}, nil
}
