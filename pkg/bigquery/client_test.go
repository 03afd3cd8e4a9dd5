package bigquery

import (
	"testing"

	"github.com/centrelabs/backoffice/pkg/config"
)

func TestConfiguredTables(t *testing.T) {
	cfg := config.BigQueryConfig{
		RevenueTable: " order_revenue ",
	}
	tables := configuredTables(cfg)
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
	if tables[0] != "order_revenue" {
		t.Fatalf("expected trimmed table name, got %q", tables[0])
	}
}

func TestConfiguredTablesEmpty(t *testing.T) {
	if tables := configuredTables(config.BigQueryConfig{}); len(tables) != 0 {
		t.Fatalf("expected no tables, got %v", tables)
	}
}
