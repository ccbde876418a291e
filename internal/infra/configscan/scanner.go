package configscan

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"mcpshadow/internal/domain"
	"mcpshadow/internal/infra/telemetry"
)

const opScan = "configscan.scan"

type Scanner struct {
	logger  *zap.Logger
	metrics domain.Metrics
}

type ScannerOptions struct {
	Logger  *zap.Logger
	Metrics domain.Metrics
}

func NewScanner(opts ScannerOptions) *Scanner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &Scanner{
		logger:  logger.Named("configscan"),
		metrics: metrics,
	}
}

// Scan walks every config path declared for platform and returns the servers
// they declare, in manifest order. A platform missing from the manifest yields
// an empty result and a CodeUnsupportedPlatform error; unreadable or malformed
// files are logged and skipped.
func (s *Scanner) Scan(ctx context.Context, manifest domain.Manifest, platform string) ([]domain.ConfirmedServer, error) {
	servers := []domain.ConfirmedServer{}

	clients, ok := manifest.Clients(platform)
	if !ok {
		return servers, domain.E(domain.CodeUnsupportedPlatform, opScan,
			fmt.Sprintf("platform %q is not declared in the manifest", platform), domain.ErrUnsupportedPlatform)
	}

	for _, client := range clients {
		for _, pattern := range client.ConfigPaths {
			if err := ctx.Err(); err != nil {
				return servers, err
			}

			path, missing := expandPath(pattern)
			if path == "" {
				continue
			}
			if len(missing) > 0 {
				s.logger.Debug("unset environment variables in config path",
					telemetry.ClientField(client.Name),
					zap.String("pattern", pattern),
					zap.Strings("missing", missing),
				)
			}

			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}

			outcome := s.scanFile(client.Name, path)
			if !outcome.OK() {
				s.metrics.ObserveSkipped(outcome.Code())
				s.logger.Warn("skipping unreadable client config",
					telemetry.ClientField(client.Name),
					telemetry.ConfigPathField(path),
					zap.Error(outcome.Err),
				)
				continue
			}
			servers = append(servers, outcome.Value...)
		}
	}

	s.metrics.ObserveRecords(domain.SourceConfig, len(servers))
	return servers, nil
}

func (s *Scanner) scanFile(client, path string) domain.Outcome[[]domain.ConfirmedServer] {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Fail[[]domain.ConfirmedServer](domain.E(domain.CodeConfigParse, opScan, "", fmt.Errorf("read %s: %w", path, err)))
	}

	entries, err := readServers(path, data)
	if err != nil {
		return domain.Fail[[]domain.ConfirmedServer](domain.E(domain.CodeConfigParse, opScan, "", fmt.Errorf("%s: %w", path, err)))
	}

	servers := make([]domain.ConfirmedServer, 0, len(entries))
	for _, entry := range entries {
		servers = append(servers, domain.NewConfirmedServer(client, path, entry.ID, entry.Command, entry.URL, entry.Args, entry.Env))
	}
	if len(servers) > 0 {
		s.logger.Debug("client config declares servers",
			telemetry.ClientField(client),
			telemetry.ConfigPathField(path),
			zap.Int("servers", len(servers)),
		)
	}
	return domain.Ok(servers)
}
