package statement

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bobmcallan/navfolio/internal/common"
	"github.com/bobmcallan/navfolio/internal/models"
)

// JSONSource reads a consolidated account statement exported as JSON.
type JSONSource struct {
	path   string
	logger *common.Logger
}

// NewJSONSource creates a JSON statement reader
func NewJSONSource(path string, logger *common.Logger) *JSONSource {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &JSONSource{path: path, logger: logger}
}

// Load parses the whole file.
func (s *JSONSource) Load(ctx context.Context) (*models.TransactionSet, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read statement: %w", err)
	}

	var doc casDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON statement %s: %w", s.path, err)
	}

	return buildSet(ctx, &doc, filepath.Base(s.path), s.logger)
}
