// Package pipeline runs the tutorial workflow end to end: build the
// doped supercell, preconverge the electronic structure, relax the
// positions, analyze interatomic distances and simulate the STEM
// image. Every stage records its outcome in the run ledger and leaves
// its artifacts under the work directory.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	crystal "github.com/gocrystal/gocrystal"
	"github.com/gocrystal/gocrystal/chemplot"
	"github.com/gocrystal/gocrystal/dft"
	"github.com/gocrystal/gocrystal/internal/config"
	"github.com/gocrystal/gocrystal/internal/ledger"
	"github.com/gocrystal/gocrystal/stem"
	"github.com/gocrystal/gocrystal/traj"
)

// Artifact names under the work directory.
const (
	SupercellCIF = "supercell.cif"
	StaticJob    = "static"
	RelaxJob     = "relax"
	RelaxedCIF   = "relaxed.cif"
	RelaxTraj    = "relax.stz"
	DistancesTXT = "distances.txt"
	DistancesPNG = "distances" // chemplot appends .png
	ImageJob     = "haadf"
	ImagePNG     = "haadf"
)

// Pipeline holds what the stages share.
type Pipeline struct {
	cfg   *config.Config
	log   *slog.Logger
	store *ledger.Store
}

// New opens the run ledger under the configured work directory and
// returns a ready pipeline.
func New(cfg *config.Config, log *slog.Logger) (*Pipeline, error) {
	store, err := ledger.Open(cfg.Paths.WorkDir)
	if err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, log: log, store: store}, nil
}

// Close releases the ledger.
func (p *Pipeline) Close() error {
	return p.store.Close()
}

// Store exposes the run ledger, for status reporting.
func (p *Pipeline) Store() *ledger.Store {
	return p.store
}

func (p *Pipeline) workpath(name string) string {
	return filepath.Join(p.cfg.Paths.WorkDir, name)
}

// record wraps a stage body with ledger bookkeeping.
func (p *Pipeline) record(ctx context.Context, stage string, body func() (ledger.Result, error)) error {
	id, err := p.store.StartRun(ctx, stage)
	if err != nil {
		return err
	}
	res, err := body()
	if err != nil {
		p.log.Error("stage failed", "stage", stage, "error", err)
		if ferr := p.store.FailRun(ctx, id, err.Error()); ferr != nil {
			p.log.Error("could not record failure", "stage", stage, "error", ferr)
		}
		return err
	}
	return p.store.FinishRun(ctx, id, res)
}

// Supercell builds the replicated, doped cell from the input CIF and
// writes it to the work directory.
func (p *Pipeline) Supercell(ctx context.Context) error {
	return p.record(ctx, ledger.StageSupercell, func() (ledger.Result, error) {
		var res ledger.Result
		if p.cfg.Paths.StructFile == "" {
			return res, fmt.Errorf("no input structure configured (paths.struct_file)")
		}
		cr, err := crystal.CIFFileRead(p.cfg.Paths.StructFile)
		if err != nil {
			return res, err
		}
		p.log.Info("read unit cell", "file", p.cfg.Paths.StructFile, "atoms", cr.Len())
		sup, err := crystal.Supercell(cr, p.cfg.Supercell.Factors)
		if err != nil {
			return res, err
		}
		if n := p.cfg.Supercell.Count; n > 0 {
			var src rand.Source
			if p.cfg.Supercell.Seed != 0 {
				src = rand.NewSource(p.cfg.Supercell.Seed)
			}
			sites, err := crystal.Dope(sup, p.cfg.Supercell.Host, p.cfg.Supercell.Dopant, n, src)
			if err != nil {
				return res, err
			}
			formula := sup.Formula()
			p.log.Info("substituted atoms", "host", p.cfg.Supercell.Host,
				"dopant", p.cfg.Supercell.Dopant, "sites", sites,
				"remaining_host", formula[p.cfg.Supercell.Host],
				"doped", formula[p.cfg.Supercell.Dopant])
			res.Detail = fmt.Sprintf("%s->%s at %v", p.cfg.Supercell.Host, p.cfg.Supercell.Dopant, sites)
		}
		if pairs, err := crystal.Clashes(sup, 0.6); err != nil {
			p.log.Warn("could not check for close contacts", "error", err)
		} else if len(pairs) > 0 {
			p.log.Warn("supercell has unphysically close contacts",
				"pairs", len(pairs), "first", pairs[0])
		}
		out := p.workpath(SupercellCIF)
		if err := os.MkdirAll(p.cfg.Paths.WorkDir, 0o755); err != nil {
			return res, err
		}
		if err := crystal.CIFFileWrite(out, sup); err != nil {
			return res, err
		}
		p.log.Info("wrote supercell", "file", out, "atoms", sup.Len())
		res.Artifact = out
		return res, nil
	})
}

func (p *Pipeline) calc() *dft.Calc {
	Q := new(dft.Calc)
	Q.SetDefaults()
	Q.Mode = p.cfg.DFT.Mode
	Q.Basis = p.cfg.DFT.Basis
	Q.XC = p.cfg.DFT.XC
	Q.Kpts = p.cfg.DFT.Kpts
	Q.ConvEnergy = p.cfg.DFT.ConvEnergy
	Q.ConvDensity = p.cfg.DFT.ConvDensity
	Q.ConvEigen = p.cfg.DFT.ConvEigen
	Q.Fmax = p.cfg.DFT.Fmax
	Q.MaxSteps = p.cfg.DFT.MaxSteps
	return Q
}

func (p *Pipeline) gpaw(job string) *dft.GPAWHandle {
	h := dft.NewGPAWHandle()
	h.SetCommand(p.cfg.DFT.Command)
	h.SetnCPU(p.cfg.DFT.NCPU)
	h.SetName(p.workpath(job))
	return h
}

// Static preconverges the electronic structure of the supercell and
// leaves a checkpoint for the relaxation to restart from.
func (p *Pipeline) Static(ctx context.Context) error {
	return p.record(ctx, ledger.StageStatic, func() (ledger.Result, error) {
		var res ledger.Result
		cr, err := crystal.CIFFileRead(p.workpath(SupercellCIF))
		if err != nil {
			return res, fmt.Errorf("no supercell to calculate (run the supercell stage first): %w", err)
		}
		h := p.gpaw(StaticJob)
		if err := h.BuildInput(cr, p.calc()); err != nil {
			return res, err
		}
		p.log.Info("running static calculation", "engine_log", p.workpath(StaticJob)+".txt")
		if err := h.Run(true); err != nil {
			return res, fmt.Errorf("engine run: %w", err)
		}
		energy, err := h.Energy()
		if err != nil {
			return res, err
		}
		fmax, err := h.MaxForce()
		if err != nil {
			return res, err
		}
		converged, err := h.Converged()
		if err != nil {
			return res, err
		}
		p.log.Info("static calculation done", "energy_eV", energy, "fmax", fmax, "converged", converged)
		res.Artifact = h.Checkpoint()
		res.Energy = &energy
		res.Fmax = &fmax
		res.Converged = &converged
		return res, nil
	})
}

// Relax restarts from the static checkpoint and relaxes the positions.
// The relaxed structure is exported as CIF only if the relaxation
// converged; the step trajectory is kept either way.
func (p *Pipeline) Relax(ctx context.Context) error {
	return p.record(ctx, ledger.StageRelax, func() (ledger.Result, error) {
		var res ledger.Result
		cr, err := crystal.CIFFileRead(p.workpath(SupercellCIF))
		if err != nil {
			return res, fmt.Errorf("no supercell to relax (run the supercell stage first): %w", err)
		}
		checkpoint := p.workpath(StaticJob) + ".gpw"
		if _, err := os.Stat(checkpoint); err != nil {
			return res, fmt.Errorf("no static checkpoint to restart from (run the static stage first): %w", err)
		}
		Q := p.calc()
		Q.Optimize = true
		Q.RestartFrom = checkpoint
		h := p.gpaw(RelaxJob)
		if err := h.BuildInput(cr, Q); err != nil {
			return res, err
		}
		if err := h.Run(true); err != nil {
			return res, fmt.Errorf("engine run: %w", err)
		}
		energy, err := h.Energy()
		if err != nil {
			return res, err
		}
		fmax, err := h.MaxForce()
		if err != nil {
			return res, err
		}
		converged, err := h.Converged()
		if err != nil {
			return res, err
		}
		res.Energy = &energy
		res.Fmax = &fmax
		res.Converged = &converged
		if frames, err := traj.FromXYZ(h.TrajectoryFile(), p.workpath(RelaxTraj), cr.Cell()); err != nil {
			p.log.Warn("could not convert the step trajectory", "error", err)
		} else {
			p.log.Info("stored relaxation trajectory", "file", p.workpath(RelaxTraj), "frames", frames)
		}
		if !converged {
			p.log.Warn("relaxation did not converge, keeping the structure unexported",
				"fmax", fmax, "target", Q.Fmax)
			res.Detail = "not converged; relaxed structure not exported"
			res.Artifact = h.Checkpoint()
			return res, nil
		}
		coords, err := h.OptimizedGeometry(cr)
		if err != nil {
			return res, err
		}
		relaxed := cr.Copy()
		relaxed.Coords.SetMatrix(0, 0, coords)
		out := p.workpath(RelaxedCIF)
		if err := crystal.CIFFileWrite(out, relaxed); err != nil {
			return res, err
		}
		p.log.Info("relaxation converged", "energy_eV", energy, "fmax", fmax, "file", out)
		res.Artifact = out
		return res, nil
	})
}

// Distances reports the nearest-neighbor distance of every atom of
// the configured species in the relaxed structure, writes the report
// and plots the histogram.
func (p *Pipeline) Distances(ctx context.Context) error {
	return p.record(ctx, ledger.StageDistances, func() (ledger.Result, error) {
		var res ledger.Result
		cr, err := crystal.CIFFileRead(p.workpath(RelaxedCIF))
		if err != nil {
			return res, fmt.Errorf("no relaxed structure to analyze (run the relax stage first): %w", err)
		}
		neighbors, err := crystal.NearestNeighbors(cr, p.cfg.Analysis.Species)
		if err != nil {
			return res, err
		}
		var report strings.Builder
		for _, n := range neighbors {
			fmt.Fprintf(&report, "%s %s\n", p.cfg.Analysis.Species, n.String())
		}
		mean, stdev := crystal.DistanceStats(neighbors)
		fmt.Fprintf(&report, "mean = %.3f Å, stdev = %.3f Å (%d atoms)\n",
			mean, stdev, len(neighbors))
		fmt.Print(report.String())
		out := p.workpath(DistancesTXT)
		if err := os.WriteFile(out, []byte(report.String()), 0o644); err != nil {
			return res, err
		}
		err = chemplot.DistanceHisto(crystal.Distances(neighbors), p.cfg.Analysis.HistoBins,
			fmt.Sprintf("%s nearest-neighbor distances", p.cfg.Analysis.Species),
			p.workpath(DistancesPNG))
		if err != nil {
			return res, err
		}
		p.log.Info("distance analysis done", "species", p.cfg.Analysis.Species,
			"atoms", len(neighbors), "mean", mean, "stdev", stdev)
		res.Artifact = out
		res.Detail = fmt.Sprintf("mean %.3f Å over %d atoms", mean, len(neighbors))
		return res, nil
	})
}

// Image simulates the HAADF-STEM image of the relaxed structure and
// plots it.
func (p *Pipeline) Image(ctx context.Context) error {
	return p.record(ctx, ledger.StageImage, func() (ledger.Result, error) {
		var res ledger.Result
		structfile := p.workpath(RelaxedCIF)
		cr, err := crystal.CIFFileRead(structfile)
		if err != nil {
			return res, fmt.Errorf("no relaxed structure to image (run the relax stage first): %w", err)
		}
		for symbol := range cr.Formula() {
			if _, ok := crystal.AtomicNumber(symbol); !ok {
				return res, fmt.Errorf("no atomic number tabulated for %s, its scattering potential can't be parametrized", symbol)
			}
		}
		P := new(stem.Probe)
		P.SetDefaults()
		P.Voltage = p.cfg.STEM.Voltage
		P.Semiangle = p.cfg.STEM.Semiangle
		P.HAADFInner = p.cfg.STEM.HAADFInner
		P.HAADFOuter = p.cfg.STEM.HAADFOuter
		P.Sampling = p.cfg.STEM.Sampling
		P.SliceThickness = p.cfg.STEM.SliceThickness
		P.FrozenPhonons = p.cfg.STEM.FrozenPhonons
		P.Seed = p.cfg.Supercell.Seed
		h := stem.NewAbTEMHandle()
		h.SetCommand(p.cfg.STEM.Command)
		h.SetName(p.workpath(ImageJob))
		if err := h.BuildInput(structfile, P); err != nil {
			return res, err
		}
		if err := h.Run(true); err != nil {
			return res, fmt.Errorf("engine run: %w", err)
		}
		image, err := h.Image()
		if err != nil {
			return res, err
		}
		rows, cols := image.Dims()
		p.log.Info("simulated image", "rows", rows, "cols", cols)
		err = chemplot.ImageMap(image, P.Sampling, "HAADF-STEM", p.workpath(ImagePNG))
		if err != nil {
			return res, err
		}
		res.Artifact = p.workpath(ImagePNG) + ".png"
		return res, nil
	})
}

// All runs every stage in order, stopping at the first failure.
func (p *Pipeline) All(ctx context.Context) error {
	stages := []struct {
		name string
		run  func(context.Context) error
	}{
		{ledger.StageSupercell, p.Supercell},
		{ledger.StageStatic, p.Static},
		{ledger.StageRelax, p.Relax},
		{ledger.StageDistances, p.Distances},
		{ledger.StageImage, p.Image},
	}
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.run(ctx); err != nil {
			return fmt.Errorf("stage %s: %w", s.name, err)
		}
	}
	return nil
}
