package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"mcpshadow/internal/domain"
	"mcpshadow/internal/infra/remote"
	"mcpshadow/internal/infra/telemetry"
)

const (
	opClassify = "classifier.classify"

	systemPrompt = "You are a senior security analyst."
)

// LLMClassifier asks a chat model to rate the risk of an exposed MCP server.
type LLMClassifier struct {
	config  domain.ClassifierConfig
	model   model.BaseChatModel
	logger  *zap.Logger
	metrics domain.Metrics
}

type Options struct {
	Config domain.ClassifierConfig
	// Model overrides the chat model built from Config.
	Model   model.BaseChatModel
	Logger  *zap.Logger
	Metrics domain.Metrics
}

// New builds a classifier. It returns nil and no error when no API key is
// configured, in which case callers skip classification entirely.
func New(ctx context.Context, opts Options) (*LLMClassifier, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("classifier")
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	config := withDefaults(opts.Config)

	chatModel := opts.Model
	if chatModel == nil {
		apiKey := resolveAPIKey(config)
		if apiKey == "" {
			logger.Info("security classification disabled: no api key configured")
			return nil, nil
		}
		built, err := initializeModel(ctx, config, apiKey)
		if err != nil {
			return nil, domain.E(domain.CodeClassifier, "classifier.new", "initialize chat model", err)
		}
		chatModel = built
	}

	return &LLMClassifier{
		config:  config,
		model:   chatModel,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Classify never fails: any error becomes a placeholder assessment.
func (c *LLMClassifier) Classify(ctx context.Context, subject any, tools domain.ToolCatalog) domain.Assessment {
	prompt, err := buildPrompt(subject, tools)
	if err != nil {
		return domain.AssessmentFailure(failureText(err))
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(prompt),
	}

	started := time.Now()
	outcome := remote.Do(ctx, opClassify, c.config.Timeout(), func(ctx context.Context) (string, error) {
		response, err := c.model.Generate(ctx, messages)
		if err != nil {
			return "", err
		}
		if response == nil || strings.TrimSpace(response.Content) == "" {
			return "", domain.E(domain.CodeClassifier, "", "empty model response", nil)
		}
		return response.Content, nil
	})
	c.metrics.ObserveClassification(c.config.Provider, c.config.Model, time.Since(started), outcome.Err)

	if !outcome.OK() {
		c.logger.Warn("security classification failed",
			telemetry.EventField(telemetry.EventClassifyFailure),
			zap.Error(outcome.Err),
		)
		return domain.AssessmentFailure(failureText(outcome.Err))
	}
	return domain.NewAssessment(outcome.Value)
}

func failureText(err error) string {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return "classification failed: " + domainErr.Message
	}
	return "classification failed: " + err.Error()
}

func buildPrompt(subject any, tools domain.ToolCatalog) (string, error) {
	serverJSON, err := json.MarshalIndent(subject, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode server: %w", err)
	}
	toolsJSON, err := json.MarshalIndent(tools, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode tools: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You are a senior cybersecurity analyst.\n\n")
	sb.WriteString("Analyze the following MCP server and its exposed tools.\n\n")
	sb.WriteString("Server Info:\n")
	sb.Write(serverJSON)
	sb.WriteString("\n\nTools:\n")
	sb.Write(toolsJSON)
	sb.WriteString("\n\nReturn output strictly in JSON format:\n\n")
	sb.WriteString(`{
  "risk_level": "Low | Medium | High | Critical",
  "reason": "...",
  "abuse_scenarios": "...",
  "mitigations": "..."
}`)
	sb.WriteString("\n")
	return sb.String(), nil
}

var _ domain.Classifier = (*LLMClassifier)(nil)
