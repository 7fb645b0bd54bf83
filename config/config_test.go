package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("WORKER_NUMBER", "")
	t.Setenv("VAT_RATE", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 1, cfg.WorkerNumber)
	assert.Equal(t, 30*time.Second, cfg.WorkerInterval)
	assert.Equal(t, "0.14", cfg.VATRate.String())
	assert.Equal(t, "random", cfg.AgentSelector)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("WORKER_NUMBER", "4")
	t.Setenv("WORKER_INTERVAL_SEC", "5")
	t.Setenv("VAT_RATE", "0.1")
	t.Setenv("DISPATCH_CONCURRENCY", "not-a-number")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 4, cfg.WorkerNumber)
	assert.Equal(t, 5*time.Second, cfg.WorkerInterval)
	assert.Equal(t, "0.1", cfg.VATRate.String())
	assert.Equal(t, 10, cfg.DispatchConcurrency)
}

func TestLoadProviderTables_Default(t *testing.T) {
	tables, err := LoadProviderTables("")
	require.NoError(t, err)

	assert.Equal(t, "wallet", tables.Issuers["vodafone"])
	assert.Equal(t, "ach", tables.Issuers["bank_card"])
	assert.Equal(t, "onelink", tables.Issuers["ibft"])
	assert.Equal(t, "aman", tables.Issuers["aman"])

	ach := tables.Families["ach"]
	assert.True(t, ach.HoldOnAccept)
	assert.Equal(t, "being_processed", ach.Codes["8111"])
	assert.Equal(t, "returned", ach.Codes["000100"])
	assert.Equal(t, "successful", tables.Families["onelink"].Codes["00"])
}

func TestLoadProviderTables_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	doc := `
issuers:
  vodafone: wallet
families:
  wallet:
    stale_after_sec: 60
    codes:
      "200": successful
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	tables, err := LoadProviderTables(path)
	require.NoError(t, err)
	assert.Equal(t, 60, tables.Families["wallet"].StaleAfterSec)
}

func TestParseProviderTables_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "no issuers",
			doc:  "families: {}",
		},
		{
			name: "issuer routed to missing family",
			doc:  "issuers: {vodafone: wallet}\nfamilies: {}",
		},
		{
			name: "unknown status name",
			doc:  "issuers: {vodafone: wallet}\nfamilies:\n  wallet:\n    codes: {\"200\": done}",
		},
		{
			name: "bad dispatch policy",
			doc:  "issuers: {vodafone: wallet}\nfamilies:\n  wallet:\n    unknown_on_dispatch: retry",
		},
		{
			name: "not yaml",
			doc:  "issuers: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProviderTables([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}
