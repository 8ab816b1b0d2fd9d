package main

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/gocrystal/gocrystal/internal/ledger"
)

func TestRenderRuns(t *testing.T) {
	runs := []*ledger.Run{
		{
			Stage:     ledger.StageSupercell,
			Status:    ledger.StatusDone,
			Artifact:  "runs/supercell.cif",
			UpdatedAt: time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
		},
		{
			Stage:     ledger.StageStatic,
			Status:    ledger.StatusDone,
			Energy:    sql.NullFloat64{Float64: -307.2665, Valid: true},
			Fmax:      sql.NullFloat64{Float64: 0.042, Valid: true},
			Converged: sql.NullBool{Bool: true, Valid: true},
			Artifact:  "runs/static.gpw",
			UpdatedAt: time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
		},
	}
	out := renderRuns(runs)
	for _, want := range []string{"supercell", "static", "-307.2665", "0.042", "yes", "runs/static.gpw"} {
		if !strings.Contains(out, want) {
			t.Errorf("table lacks %q:\n%s", want, out)
		}
	}
	// unreported values render as dashes
	if !strings.Contains(out, "-") {
		t.Errorf("missing placeholder for null values:\n%s", out)
	}
}

func TestConfigInitCommand(t *testing.T) {
	dir := t.TempDir()
	cmd := newRootCommand()
	cmd.SetArgs([]string{"--config", dir + "/config.toml", "config", "init"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	// a second init must refuse to overwrite
	cmd = newRootCommand()
	cmd.SetArgs([]string{"--config", dir + "/config.toml", "config", "init"})
	if err := cmd.Execute(); err == nil {
		t.Error("overwriting an existing config should fail")
	}
}
