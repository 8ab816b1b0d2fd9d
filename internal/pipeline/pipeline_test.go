package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	crystal "github.com/gocrystal/gocrystal"
	"github.com/gocrystal/gocrystal/internal/config"
	"github.com/gocrystal/gocrystal/internal/ledger"
	"github.com/gocrystal/gocrystal/internal/logging"
)

func testPipeline(t *testing.T) (*Pipeline, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Paths.StructFile = "../../test/4H_SiC.cif"
	cfg.Supercell.Seed = 42
	p, err := New(&cfg, logging.New(io.Discard, "console", "error"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { p.Close() })
	return p, &cfg
}

func TestSupercellStage(t *testing.T) {
	p, cfg := testPipeline(t)
	ctx := context.Background()
	if err := p.Supercell(ctx); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(cfg.Paths.WorkDir, SupercellCIF)
	sup, err := crystal.CIFFileRead(out)
	if err != nil {
		t.Fatal(err)
	}
	// 8 atoms x 2x2x1, with 2 C substituted by O
	if sup.Len() != 32 {
		t.Errorf("expected 32 atoms, got %d", sup.Len())
	}
	formula := sup.Formula()
	if formula["O"] != 2 || formula["C"] != 14 || formula["Si"] != 16 {
		t.Errorf("unexpected composition: %v", formula)
	}
	run, err := p.Store().Latest(ctx, ledger.StageSupercell)
	if err != nil {
		t.Fatal(err)
	}
	if run == nil || run.Status != ledger.StatusDone || run.Artifact != out {
		t.Errorf("stage not recorded: %+v", run)
	}
	if !strings.Contains(run.Detail, "C->O") {
		t.Errorf("substitution sites not recorded: %q", run.Detail)
	}
}

func TestStaticStageNeedsSupercell(t *testing.T) {
	p, _ := testPipeline(t)
	ctx := context.Background()
	if err := p.Static(ctx); err == nil {
		t.Fatal("static stage should fail without a supercell")
	}
	run, err := p.Store().Latest(ctx, ledger.StageStatic)
	if err != nil {
		t.Fatal(err)
	}
	if run == nil || run.Status != ledger.StatusFailed {
		t.Errorf("failure not recorded: %+v", run)
	}
}

func TestDistancesStage(t *testing.T) {
	p, cfg := testPipeline(t)
	ctx := context.Background()
	// stand in for a converged relaxation: the supercell itself
	if err := p.Supercell(ctx); err != nil {
		t.Fatal(err)
	}
	src, err := os.ReadFile(filepath.Join(cfg.Paths.WorkDir, SupercellCIF))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Paths.WorkDir, RelaxedCIF), src, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := p.Distances(ctx); err != nil {
		t.Fatal(err)
	}
	report, err := os.ReadFile(filepath.Join(cfg.Paths.WorkDir, DistancesTXT))
	if err != nil {
		t.Fatal(err)
	}
	text := string(report)
	if strings.Count(text, "nearest neighbor") != 16 {
		t.Errorf("expected one line per Si atom:\n%s", text)
	}
	if !strings.Contains(text, "mean = 3.0") {
		t.Errorf("unexpected mean Si-Si distance:\n%s", text)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.WorkDir, DistancesPNG+".png")); err != nil {
		t.Error("histogram not plotted")
	}
}

// an element without multislice parametrization must abort the image
// stage before any engine run.
func TestImageStageRejectsUntabulatedSpecies(t *testing.T) {
	p, cfg := testPipeline(t)
	ctx := context.Background()
	cif := "data_fake\n" +
		"_cell_length_a       5.0\n" +
		"_cell_length_b       5.0\n" +
		"_cell_length_c       5.0\n" +
		"_cell_angle_alpha    90.0\n" +
		"_cell_angle_beta     90.0\n" +
		"_cell_angle_gamma    90.0\n\n" +
		"loop_\n" +
		" _atom_site_label\n" +
		" _atom_site_type_symbol\n" +
		" _atom_site_fract_x\n" +
		" _atom_site_fract_y\n" +
		" _atom_site_fract_z\n" +
		" Na1 Na 0.0 0.0 0.0\n"
	if err := os.WriteFile(filepath.Join(cfg.Paths.WorkDir, RelaxedCIF), []byte(cif), 0o644); err != nil {
		t.Fatal(err)
	}
	err := p.Image(ctx)
	if err == nil {
		t.Fatal("image stage accepted a species with no atomic number tabulated")
	}
	if !strings.Contains(err.Error(), "atomic number") {
		t.Errorf("unexpected error: %v", err)
	}
}
