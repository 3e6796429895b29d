// Package report renders valuations for the terminal, as JSON, or as a chart
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"

	"github.com/bobmcallan/navfolio/internal/common"
	"github.com/bobmcallan/navfolio/internal/interfaces"
	"github.com/bobmcallan/navfolio/internal/models"
)

// Option configures a Service
type Option func(*Service)

// WithStyle selects a glamour style ("dark", "light", "notty", ...)
// instead of detecting one from the terminal.
func WithStyle(style string) Option {
	return func(s *Service) {
		s.style = style
	}
}

// Service implements Reporter
type Service struct {
	out    io.Writer
	config common.ReportConfig
	style  string
	logger *common.Logger
}

// NewService creates a new report service writing to out
func NewService(out io.Writer, config common.ReportConfig, logger *common.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	if config.Format == "" {
		config.Format = common.ReportFormatMarkdown
	}
	s := &Service{
		out:    out,
		config: config,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Report writes the valuation in the configured format and, when a chart
// path is configured, renders the growth chart next to it.
func (s *Service) Report(ctx context.Context, v *models.Valuation) error {
	if v == nil {
		return fmt.Errorf("no valuation to report")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var err error
	switch s.config.Format {
	case common.ReportFormatJSON:
		err = s.writeJSON(v)
	case common.ReportFormatPlain:
		_, err = io.WriteString(s.out, formatValuation(v))
	default:
		err = s.writeMarkdown(v)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if s.config.ChartPath != "" {
		if err := s.writeChart(v); err != nil {
			s.logger.Warn().Err(err).Str("path", s.config.ChartPath).Msg("Chart not written")
		}
	}
	return nil
}

func (s *Service) writeJSON(v *models.Valuation) error {
	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (s *Service) writeMarkdown(v *models.Valuation) error {
	md := formatValuation(v)

	rendered, err := s.render(md)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Markdown rendering failed, writing plain text")
		rendered = md
	}
	_, err = io.WriteString(s.out, rendered)
	return err
}

func (s *Service) render(md string) (string, error) {
	wrap := s.config.WordWrap
	if wrap <= 0 {
		wrap = 100
	}

	styleOpt := glamour.WithAutoStyle()
	if s.style != "" {
		styleOpt = glamour.WithStandardStyle(s.style)
	}

	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(wrap))
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

func (s *Service) writeChart(v *models.Valuation) error {
	png, err := RenderGrowthChart(v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.config.ChartPath, png, 0o644); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	s.logger.Info().Str("path", s.config.ChartPath).Int("bytes", len(png)).Msg("Chart written")
	return nil
}

// Ensure Service implements Reporter
var _ interfaces.Reporter = (*Service)(nil)
