package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/radhian/payout-disbursement/consts"
	"gopkg.in/yaml.v3"
)

//go:embed provider_tables.yaml
var defaultProviderTables []byte

// ProviderTables is the data-driven part of routing: which family serves an issuer and how each
// family's provider codes map onto transaction statuses.
type ProviderTables struct {
	Issuers  map[string]string      `yaml:"issuers"`
	Families map[string]FamilyTable `yaml:"families"`
}

type FamilyTable struct {
	StaleAfterSec     int               `yaml:"stale_after_sec"`
	HoldOnAccept      bool              `yaml:"hold_on_accept"`
	UnknownOnDispatch string            `yaml:"unknown_on_dispatch"`
	WholeUnits        bool              `yaml:"whole_units"`
	Codes             map[string]string `yaml:"codes"`
}

// LoadProviderTables reads the tables from path, or the embedded default when path is empty.
func LoadProviderTables(path string) (*ProviderTables, error) {
	raw := defaultProviderTables
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read provider tables: %w", err)
		}
		raw = b
	}
	return ParseProviderTables(raw)
}

func ParseProviderTables(raw []byte) (*ProviderTables, error) {
	var tables ProviderTables
	if err := yaml.Unmarshal(raw, &tables); err != nil {
		return nil, fmt.Errorf("parse provider tables: %w", err)
	}
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	return &tables, nil
}

func (t *ProviderTables) Validate() error {
	if len(t.Issuers) == 0 {
		return fmt.Errorf("provider tables: no issuers configured")
	}
	for issuer, family := range t.Issuers {
		if _, ok := t.Families[family]; !ok {
			return fmt.Errorf("provider tables: issuer %s routed to unknown family %s", issuer, family)
		}
	}
	for family, ft := range t.Families {
		switch ft.UnknownOnDispatch {
		case "", "fail", "ignore":
		default:
			return fmt.Errorf("provider tables: family %s has invalid unknown_on_dispatch %q", family, ft.UnknownOnDispatch)
		}
		for code, name := range ft.Codes {
			if _, ok := consts.StatusFromName(name); !ok {
				return fmt.Errorf("provider tables: family %s code %s maps to unknown status %q", family, code, name)
			}
		}
	}
	return nil
}
