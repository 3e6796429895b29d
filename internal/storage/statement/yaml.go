package statement

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bobmcallan/navfolio/internal/common"
	"github.com/bobmcallan/navfolio/internal/models"
)

// YAMLSource reads a statement in the same layout as JSONSource, written
// as YAML. Handy for hand-maintained histories.
type YAMLSource struct {
	path   string
	logger *common.Logger
}

// NewYAMLSource creates a YAML statement reader
func NewYAMLSource(path string, logger *common.Logger) *YAMLSource {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &YAMLSource{path: path, logger: logger}
}

// Load parses the whole file.
func (s *YAMLSource) Load(ctx context.Context) (*models.TransactionSet, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read statement: %w", err)
	}

	var doc casDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML statement %s: %w", s.path, err)
	}

	return buildSet(ctx, &doc, filepath.Base(s.path), s.logger)
}
