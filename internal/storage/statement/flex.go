package statement

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// flexDecimal accepts a JSON/YAML number or a numeric string such as
// "1,234.500" or "(12.5)". Invalid input is recorded, not returned, so one
// bad record does not fail the whole document.
type flexDecimal struct {
	value decimal.Decimal
	set   bool
	err   error
}

func (f *flexDecimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = flexDecimal{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f.parse(s)
		return nil
	}
	f.parse(string(data))
	return nil
}

func (f *flexDecimal) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		*f = flexDecimal{err: fmt.Errorf("expected a number, got %s", kindName(node.Kind))}
		return nil
	}
	if node.Tag == "!!null" {
		*f = flexDecimal{}
		return nil
	}
	f.parse(node.Value)
	return nil
}

func (f *flexDecimal) parse(s string) {
	*f = flexDecimal{}
	d, ok, err := parseAmount(s)
	if err != nil {
		f.err = err
		return
	}
	f.value, f.set = d, ok
}

// parseAmount parses a statement amount. Empty input is not an error but
// reports ok=false. Parentheses mark a negative amount.
func parseAmount(s string) (decimal.Decimal, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false, nil
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("invalid number %q", s)
	}
	if negative {
		d = d.Neg()
	}
	return d, true, nil
}

// flexString accepts a string or a bare scalar (folio numbers are often
// written as numbers).
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	*f = flexString(strings.TrimSpace(string(data)))
	return nil
}

func (f *flexString) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar, got %s", node.Line, kindName(node.Kind))
	}
	if node.Tag == "!!null" {
		*f = ""
		return nil
	}
	*f = flexString(strings.TrimSpace(node.Value))
	return nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "scalar"
	}
}
