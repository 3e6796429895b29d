// Package statement reads transaction histories from account statements
package statement

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/navfolio/internal/common"
	"github.com/bobmcallan/navfolio/internal/interfaces"
	"github.com/bobmcallan/navfolio/internal/models"
)

var (
	// ErrUnsupportedFormat is returned by Open for unknown file extensions.
	ErrUnsupportedFormat = errors.New("unsupported statement format")
	// ErrEmptyStatement is returned when a statement holds no transaction records at all.
	ErrEmptyStatement = errors.New("statement contains no transactions")
)

// dateLayouts are the transaction date formats accepted in statements.
var dateLayouts = []string{
	"2006-01-02",
	"02-Jan-2006",
	"02/01/2006",
	"02-01-2006",
	"2-Jan-2006",
	"02 Jan 2006",
}

// Open returns the reader for a statement file, chosen by extension.
// The file must exist; it is read on Load.
func Open(path string, logger *common.Logger) (interfaces.TransactionSource, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open statement: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return NewJSONSource(path, logger), nil
	case ".yaml", ".yml":
		return NewYAMLSource(path, logger), nil
	case ".pdf":
		return NewPDFSource(path, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// parseDate accepts any of dateLayouts.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// casDocument is the consolidated account statement layout shared by the
// JSON and YAML readers.
type casDocument struct {
	Data []casSection `json:"data" yaml:"data"`
}

type casSection struct {
	DtSummary []casRecord `json:"dtSummary" yaml:"dtSummary"`
}

// casRecord is one transaction line. ClosingBalance is the signed unit
// movement of the transaction and Nav its unit price.
type casRecord struct {
	ISIN           flexString  `json:"isin" yaml:"isin"`
	Folio          flexString  `json:"folio" yaml:"folio"`
	Scheme         flexString  `json:"scheme" yaml:"scheme"`
	ClosingBalance flexDecimal `json:"closingBalance" yaml:"closingBalance"`
	Nav            flexDecimal `json:"nav" yaml:"nav"`
	TrxnDate       flexString  `json:"trxnDate" yaml:"trxnDate"`
	TrxnDesc       flexString  `json:"trxnDesc" yaml:"trxnDesc"`
}

// toTransaction validates one record. Malformed records return an error
// describing the first problem found.
func (r casRecord) toTransaction() (models.Transaction, error) {
	if r.ClosingBalance.err != nil {
		return models.Transaction{}, fmt.Errorf("%w: closingBalance: %v", models.ErrMalformedTransaction, r.ClosingBalance.err)
	}
	if !r.ClosingBalance.set {
		return models.Transaction{}, fmt.Errorf("%w: missing closingBalance", models.ErrMalformedTransaction)
	}
	if r.Nav.err != nil {
		return models.Transaction{}, fmt.Errorf("%w: nav: %v", models.ErrMalformedTransaction, r.Nav.err)
	}

	at, err := parseDate(string(r.TrxnDate))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("%w: %v", models.ErrMalformedTransaction, err)
	}

	price := r.Nav.value
	if !r.Nav.set {
		price = decimal.Zero
	}

	desc := strings.TrimSpace(string(r.TrxnDesc))
	if desc == "" {
		desc = strings.TrimSpace(string(r.Scheme))
	}

	return models.NewTransaction(
		models.HoldingKey{Instrument: strings.ToUpper(string(r.ISIN)), SubAccount: string(r.Folio)},
		r.ClosingBalance.value,
		price,
		at,
		desc,
	)
}

// buildSet converts every record, turning failures into skipped warnings.
func buildSet(ctx context.Context, doc *casDocument, name string, logger *common.Logger) (*models.TransactionSet, error) {
	set := &models.TransactionSet{}
	records := 0

	for si, section := range doc.Data {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for ri, rec := range section.DtSummary {
			records++
			locator := fmt.Sprintf("%s#data[%d].dtSummary[%d]", name, si, ri)

			t, err := rec.toTransaction()
			if err != nil {
				logger.Warn().Err(err).Str("source", locator).Msg("Skipping malformed statement record")
				set.Skipped = append(set.Skipped, models.Warning{
					Kind:    models.WarningMalformedTransaction,
					Holding: models.HoldingKey{Instrument: strings.ToUpper(string(rec.ISIN)), SubAccount: string(rec.Folio)}.String(),
					Source:  locator,
					Message: err.Error(),
				})
				continue
			}
			t.Source = locator
			set.Transactions = append(set.Transactions, t)
		}
	}

	if records == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyStatement, name)
	}

	logger.Info().
		Str("statement", name).
		Int("records", records).
		Int("transactions", len(set.Transactions)).
		Int("skipped", len(set.Skipped)).
		Msg("Statement loaded")

	return set, nil
}
