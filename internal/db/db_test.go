package db

import (
	"testing"
	"time"
)

func TestDefaultPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig()
	if cfg.MaxOpenConns <= 0 || cfg.MaxIdleConns > cfg.MaxOpenConns {
		t.Errorf("pool sizes = open %d idle %d", cfg.MaxOpenConns, cfg.MaxIdleConns)
	}
	if cfg.PingTimeout != 5*time.Second {
		t.Errorf("PingTimeout = %v, want 5s", cfg.PingTimeout)
	}
}

func TestRequiredTables(t *testing.T) {
	want := map[string]bool{"graph_snapshots": true, "graph_entities": true, "graph_edges": true}
	if len(RequiredTables) != len(want) {
		t.Fatalf("RequiredTables = %v", RequiredTables)
	}
	for _, table := range RequiredTables {
		if !want[table] {
			t.Errorf("unexpected table %q", table)
		}
	}
}
