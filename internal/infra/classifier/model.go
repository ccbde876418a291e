package classifier

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"mcpshadow/internal/domain"
)

const providerOpenAI = "openai"

// resolveAPIKey returns the configured key, falling back to the environment
// variable named by the config. An empty result disables classification.
func resolveAPIKey(config domain.ClassifierConfig) string {
	if apiKey := strings.TrimSpace(config.APIKey); apiKey != "" {
		return apiKey
	}
	envVar := strings.TrimSpace(config.APIKeyEnvVar)
	if envVar == "" {
		envVar = domain.DefaultClassifierAPIKeyEnvVar
	}
	return strings.TrimSpace(os.Getenv(envVar))
}

// initializeModel creates the chat model for an OpenAI-compatible endpoint.
func initializeModel(ctx context.Context, config domain.ClassifierConfig, apiKey string) (model.BaseChatModel, error) {
	switch config.Provider {
	case providerOpenAI, "":
		cfg := &openai.ChatModelConfig{
			Model:       config.Model,
			APIKey:      apiKey,
			BaseURL:     config.BaseURL,
			Temperature: temperatureOf(config),
			Timeout:     config.Timeout() + time.Second,
		}
		return openai.NewChatModel(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", config.Provider)
	}
}

func withDefaults(config domain.ClassifierConfig) domain.ClassifierConfig {
	if config.Provider == "" {
		config.Provider = providerOpenAI
	}
	if strings.TrimSpace(config.Model) == "" {
		config.Model = domain.DefaultClassifierModel
	}
	if strings.TrimSpace(config.BaseURL) == "" {
		config.BaseURL = domain.DefaultClassifierBaseURL
	}
	config.Temperature = temperatureOf(config)
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = domain.DefaultClassifierTimeoutSeconds
	}
	return config
}

// temperatureOf returns a private copy of the configured temperature, or the
// default when none is set.
func temperatureOf(config domain.ClassifierConfig) *float32 {
	temperature := float32(domain.DefaultClassifierTemperature)
	if config.Temperature != nil {
		temperature = *config.Temperature
	}
	return &temperature
}
