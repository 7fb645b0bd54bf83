package provider

import (
	"fmt"
	"sort"
	"time"

	"github.com/radhian/payout-disbursement/config"
	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
)

// CodeTable maps one family's provider codes onto transaction statuses.
type CodeTable struct {
	Family                string
	StaleAfter            time.Duration
	HoldOnAccept          bool
	FailUnknownOnDispatch bool
	WholeUnits            bool
	codes                 map[string]int
}

// Status returns the status a code maps to; ok is false for codes the family does not define.
func (t *CodeTable) Status(code string) (int, bool) {
	status, ok := t.codes[code]
	return status, ok
}

// Routing resolves issuers to families and families to code tables.
type Routing struct {
	issuers map[string]string
	tables  map[string]*CodeTable
}

func NewRouting(tables *config.ProviderTables) (*Routing, error) {
	if err := tables.Validate(); err != nil {
		return nil, err
	}

	r := &Routing{
		issuers: make(map[string]string, len(tables.Issuers)),
		tables:  make(map[string]*CodeTable, len(tables.Families)),
	}
	for issuer, family := range tables.Issuers {
		r.issuers[issuer] = family
	}

	for family, ft := range tables.Families {
		staleAfter := ft.StaleAfterSec
		if staleAfter <= 0 {
			staleAfter = consts.DefaultStaleAfterSec
		}

		table := &CodeTable{
			Family:                family,
			StaleAfter:            time.Duration(staleAfter) * time.Second,
			HoldOnAccept:          ft.HoldOnAccept,
			FailUnknownOnDispatch: ft.UnknownOnDispatch != "ignore",
			WholeUnits:            ft.WholeUnits,
			codes:                 make(map[string]int, len(ft.Codes)),
		}
		for code, name := range ft.Codes {
			status, _ := consts.StatusFromName(name)
			table.codes[code] = status
		}
		r.tables[family] = table
	}

	return r, nil
}

func (r *Routing) FamilyOf(issuer string) (string, error) {
	family, ok := r.issuers[issuer]
	if !ok {
		return "", fmt.Errorf("issuer %s: %w", issuer, entity.ErrUnknownFamily)
	}
	return family, nil
}

func (r *Routing) Table(family string) (*CodeTable, error) {
	table, ok := r.tables[family]
	if !ok {
		return nil, fmt.Errorf("family %s: %w", family, entity.ErrUnknownFamily)
	}
	return table, nil
}

// Families lists every configured family in a stable order.
func (r *Routing) Families() []string {
	families := make([]string, 0, len(r.tables))
	for family := range r.tables {
		families = append(families, family)
	}
	sort.Strings(families)
	return families
}
