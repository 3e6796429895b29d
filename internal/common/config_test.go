package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "navfolio.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 4, cfg.Prices.Workers)
	assert.Equal(t, 10*time.Second, cfg.Prices.GetTimeout())
	assert.Equal(t, "EUFUND", cfg.Clients.EODHD.Exchange)
	assert.Equal(t, ReportFormatMarkdown, cfg.Report.Format)
	assert.Equal(t, 30*time.Second, cfg.Clients.EODHD.GetTimeout())
}

func TestLoadConfig_MergesFilesInOrder(t *testing.T) {
	first := writeConfig(t, `
environment = "staging"

[prices]
workers = 2

[prices.overrides]
INF109K01Z48 = 101.25
`)
	second := writeConfig(t, `
[prices]
workers = 8
timeout = "3s"

[report]
format = "JSON"
`)

	cfg, err := LoadConfig(first, second)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, 8, cfg.Prices.Workers)
	assert.Equal(t, 3*time.Second, cfg.Prices.GetTimeout())
	assert.Equal(t, ReportFormatJSON, cfg.Report.Format, "format is normalised to lower case")
	assert.InDelta(t, 101.25, cfg.Prices.Overrides["INF109K01Z48"], 1e-9)
}

func TestLoadConfig_MissingFileSkipped(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"), "")
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	path := writeConfig(t, "environment = [unterminated")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("NAVFOLIO_ENV", "production")
	t.Setenv("NAVFOLIO_LOG_LEVEL", "debug")
	t.Setenv("EODHD_API_KEY", "from-env")
	t.Setenv("NAVFOLIO_PRICE_WORKERS", "12")
	t.Setenv("NAVFOLIO_PRICE_TIMEOUT", "2s")
	t.Setenv("NAVFOLIO_REPORT_FORMAT", "plain")
	t.Setenv("NAVFOLIO_REPORT_STYLE", "notty")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "from-env", cfg.Clients.EODHD.APIKey)
	assert.Equal(t, 12, cfg.Prices.Workers)
	assert.Equal(t, 2*time.Second, cfg.Prices.GetTimeout())
	assert.Equal(t, ReportFormatPlain, cfg.Report.Format)
	assert.Equal(t, "notty", cfg.Report.Style)
}

func TestConfig_EODHDKeyPrefixedEnvFallback(t *testing.T) {
	t.Setenv("EODHD_API_KEY", "")
	t.Setenv("NAVFOLIO_EODHD_API_KEY", "prefixed")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, "prefixed", cfg.Clients.EODHD.APIKey)
}

func TestConfig_InvalidWorkersIgnored(t *testing.T) {
	t.Setenv("NAVFOLIO_PRICE_WORKERS", "many")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, 4, cfg.Prices.Workers)
}

func TestConfig_UnknownReportFormatFallsBack(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Report.Format = "html"
	cfg.Normalize()

	assert.Equal(t, ReportFormatMarkdown, cfg.Report.Format)
}

func TestPricesConfig_Fallbacks(t *testing.T) {
	c := PricesConfig{Workers: 0, Timeout: "soon"}
	assert.Equal(t, 4, c.GetWorkers())
	assert.Equal(t, 10*time.Second, c.GetTimeout())
}

func TestValuationConfig_GetAsOf(t *testing.T) {
	c := ValuationConfig{}
	asOf, err := c.GetAsOf()
	require.NoError(t, err)
	assert.True(t, asOf.IsZero())

	c.AsOf = "2025-03-31"
	asOf, err = c.GetAsOf()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), asOf)

	c.AsOf = "31/03/2025"
	_, err = c.GetAsOf()
	assert.Error(t, err)
}
