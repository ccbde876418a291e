package manifest

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"mcpshadow/internal/domain"
)

const opLoad = "manifest.load"

//go:embed default.json
var defaultManifest []byte

type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		return &Loader{logger: zap.NewNop()}
	}
	return &Loader{logger: logger.Named("manifest")}
}

// Load reads and validates the manifest at path. Every failure is a
// CodeManifest error: there is no partial manifest.
func (l *Loader) Load(_ context.Context, path string) (domain.Manifest, error) {
	if strings.TrimSpace(path) == "" {
		return domain.Manifest{}, domain.E(domain.CodeManifest, opLoad, "manifest path is required", nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Manifest{}, domain.E(domain.CodeManifest, opLoad, fmt.Sprintf("manifest not found: %s", path), err)
		}
		return domain.Manifest{}, domain.E(domain.CodeManifest, opLoad, "", fmt.Errorf("read manifest: %w", err))
	}

	manifest, err := Parse(data)
	if err != nil {
		return domain.Manifest{}, domain.Wrap(domain.CodeManifest, opLoad, err)
	}

	l.logger.Debug("manifest loaded",
		zap.String("path", path),
		zap.Int("platforms", len(manifest.Platforms)),
	)
	return manifest, nil
}

// Parse validates data against the manifest schema and decodes it.
func Parse(data []byte) (domain.Manifest, error) {
	if err := validateManifestSchema(data); err != nil {
		return domain.Manifest{}, domain.E(domain.CodeManifest, "", "", err)
	}

	var manifest domain.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return domain.Manifest{}, domain.E(domain.CodeManifest, "", "", fmt.Errorf("decode manifest: %w", err))
	}
	if manifest.Platforms == nil {
		manifest.Platforms = map[string]domain.PlatformDefinition{}
	}
	return manifest, nil
}

// DefaultManifest returns the built-in manifest of well-known MCP clients.
func DefaultManifest() (domain.Manifest, error) {
	return Parse(defaultManifest)
}

// DefaultManifestBytes returns the built-in manifest document as shipped.
func DefaultManifestBytes() []byte {
	out := make([]byte, len(defaultManifest))
	copy(out, defaultManifest)
	return out
}
