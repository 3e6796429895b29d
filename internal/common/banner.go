package common

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner displays the startup banner for a valuation run.
func PrintBanner(w io.Writer, config *Config, logger *Logger, source string) {
	version := GetVersion()
	build := GetBuild()
	commit := GetGitCommit()

	asOf := config.Valuation.AsOf
	if asOf == "" {
		asOf = "now"
	}
	priceSource := "overrides only"
	if config.Clients.EODHD.APIKey != "" {
		priceSource = "eodhd (" + config.Clients.EODHD.Exchange + ")"
	}

	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 60
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	fmt.Fprintf(w, "\n%s\n", hr)
	fmt.Fprintf(w, "%s  NAVFOLIO  Fund Portfolio Valuation%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(w, "%s\n\n", hr)

	kvPad := 14
	kvLines := [][2]string{
		{"Version", version},
		{"Build", build},
		{"Commit", commit},
		{"Environment", config.Environment},
		{"Source", source},
		{"As of", asOf},
		{"Prices", priceSource},
		{"Workers", strconv.Itoa(config.Prices.GetWorkers())},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(w, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s\n\n", hr)

	logger.Info().
		Str("version", version).
		Str("build", build).
		Str("commit", commit).
		Str("environment", config.Environment).
		Str("source", source).
		Str("as_of", asOf).
		Msg("Valuation started")
}
