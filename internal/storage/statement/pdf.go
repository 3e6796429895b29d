package statement

import (
	"bufio"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/navfolio/internal/common"
	"github.com/bobmcallan/navfolio/internal/models"
)

var (
	isinPattern  = regexp.MustCompile(`ISIN\s*:\s*([A-Z]{2}[A-Z0-9]{9}[0-9])`)
	folioPattern = regexp.MustCompile(`Folio\s+No\.?\s*:\s*([0-9A-Za-z]+(?:\s*/\s*[0-9A-Za-z]+)?)`)
)

// PDFSource reads a consolidated account statement PDF. Text is extracted
// row by row, then scanned for ISIN and folio headers followed by
// transaction rows of the form
//
//	date  description  amount  units  nav  balance
//
// Amounts and units in parentheses are negative (redemptions).
type PDFSource struct {
	path   string
	logger *common.Logger
}

// NewPDFSource creates a PDF statement reader
func NewPDFSource(path string, logger *common.Logger) *PDFSource {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &PDFSource{path: path, logger: logger}
}

// Load extracts the text and parses it.
func (s *PDFSource) Load(ctx context.Context) (*models.TransactionSet, error) {
	text, err := extractPDFText(ctx, s.path)
	if err != nil {
		return nil, err
	}
	return parseStatementText(ctx, text, filepath.Base(s.path), s.logger)
}

// extractPDFText returns the text of every page, one visual row per line.
func extractPDFText(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			for j, word := range row.Content {
				if j > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(word.S)
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

// parseStatementText turns extracted statement text into transactions.
// Lines that start with a date and end with a number are transaction rows;
// those that fail to parse are reported as skipped. All other lines are
// ignored.
func parseStatementText(ctx context.Context, text, name string, logger *common.Logger) (*models.TransactionSet, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	set := &models.TransactionSet{}
	var key models.HoldingKey
	rows := 0

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%500 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if m := folioPattern.FindStringSubmatch(line); m != nil {
			key.SubAccount = strings.ReplaceAll(m[1], " ", "")
		}
		if m := isinPattern.FindStringSubmatch(line); m != nil {
			key.Instrument = m[1]
			continue
		}

		if isBalanceLine(line) {
			continue
		}

		fields := strings.Fields(line)
		at, err := parseDate(fields[0])
		if err != nil || !endsWithNumber(fields) {
			continue
		}
		rows++
		locator := fmt.Sprintf("%s#line[%d]", name, lineNo)

		t, err := parseRow(key, fields[1:])
		if err == nil {
			t.TransactedAt = at
			err = t.Validate()
		}
		if err != nil {
			logger.Warn().Err(err).Str("source", locator).Msg("Skipping malformed statement row")
			set.Skipped = append(set.Skipped, models.Warning{
				Kind:    models.WarningMalformedTransaction,
				Holding: key.String(),
				Source:  locator,
				Message: err.Error(),
			})
			continue
		}
		t.Source = locator
		set.Transactions = append(set.Transactions, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan statement text: %w", err)
	}

	if rows == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyStatement, name)
	}

	logger.Info().
		Str("statement", name).
		Int("rows", rows).
		Int("transactions", len(set.Transactions)).
		Int("skipped", len(set.Skipped)).
		Msg("Statement loaded")

	return set, nil
}

func endsWithNumber(fields []string) bool {
	_, ok, err := parseAmount(fields[len(fields)-1])
	return ok && err == nil
}

// isBalanceLine matches the opening and closing unit balance summaries
// printed around each scheme's transactions.
func isBalanceLine(line string) bool {
	l := strings.ToLower(line)
	return strings.Contains(l, "opening unit balance") || strings.Contains(l, "closing unit balance")
}

// parseRow reads the fields after the date: a free-text description and
// four trailing numbers (amount, units, nav, unit balance).
func parseRow(key models.HoldingKey, fields []string) (models.Transaction, error) {
	if key.Instrument == "" {
		return models.Transaction{}, fmt.Errorf("%w: transaction row before any ISIN header", models.ErrMalformedTransaction)
	}
	if len(fields) < 4 {
		return models.Transaction{}, fmt.Errorf("%w: expected amount, units, nav and balance", models.ErrMalformedTransaction)
	}

	var nums [4]decimal.Decimal
	for i, f := range fields[len(fields)-4:] {
		d, ok, err := parseAmount(f)
		if err != nil || !ok {
			return models.Transaction{}, fmt.Errorf("%w: invalid number %q", models.ErrMalformedTransaction, f)
		}
		nums[i] = d
	}
	units, nav := nums[1], nums[2]

	return models.Transaction{
		Holding:     key,
		Units:       units,
		UnitPrice:   nav,
		Kind:        models.KindForUnits(units),
		Description: strings.Join(fields[:len(fields)-4], " "),
	}, nil
}
