package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/Naty89/PeptideScreening/apps/boltzgen"
	"github.com/Naty89/PeptideScreening/apps/fpocket"
	"github.com/Naty89/PeptideScreening/apps/pymol"
	"github.com/Naty89/PeptideScreening/apps/rosetta"
	"github.com/Naty89/PeptideScreening/cluster"
	"github.com/Naty89/PeptideScreening/slurm"
)

// A State names how far a run has progressed. Each stage requires the
// artifacts of the previous state to exist on disk; the driver never
// invents missing inputs.
type State int

const (
	Initial State = iota
	PocketDetected
	ConfigGenerated
	GenerationSubmitted
	GenerationComplete
	Postprocessed
)

func (s State) String() string {
	switch s {
	case Initial:
		return "INITIAL"
	case PocketDetected:
		return "POCKET_DETECTED"
	case ConfigGenerated:
		return "CONFIG_GENERATED"
	case GenerationSubmitted:
		return "GENERATION_SUBMITTED"
	case GenerationComplete:
		return "GENERATION_COMPLETE"
	case Postprocessed:
		return "POSTPROCESSED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// A Driver runs the screening stages in order against one Context.
type Driver struct {
	Ctx Context

	Fpocket  fpocket.Config
	BoltzGen boltzgen.Config
	PyMOL    pymol.Config
	Rosetta  rosetta.Config
	Slurm    slurm.Config
	Cluster  cluster.Config

	// Structure is the input protein structure. It is copied into the
	// base directory during config generation since the generator
	// resolves it relative to its configuration.
	Structure string

	// Lengths is the designed peptide's allowed residue-count range.
	Lengths boltzgen.LengthRange

	// PocketRank selects which detected pocket to design against,
	// best-ranked first. The zero value means rank 1.
	PocketRank int

	// State is the last state reached. It only ever advances.
	State State
}

// NewDriver creates a Driver with every external tool at its default
// configuration.
func NewDriver(ctx Context, structure string,
	lengths boltzgen.LengthRange) *Driver {

	return &Driver{
		Ctx:       ctx,
		Fpocket:   fpocket.DefaultConfig,
		BoltzGen:  boltzgen.DefaultConfig,
		PyMOL:     pymol.DefaultConfig,
		Rosetta:   rosetta.DefaultConfig,
		Slurm:     slurm.DefaultConfig,
		Cluster:   cluster.DefaultConfig,
		Structure: structure,
		Lengths:   lengths,
	}
}

// Run drives a complete screening run from pocket detection through
// postprocessing. The context bounds the generation wait; everything
// else runs to completion or first fatal error.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	pocketPath, err := d.DetectPocket()
	if err != nil {
		return Summary{}, err
	}
	if err := d.GenerateConfig(pocketPath); err != nil {
		return Summary{}, err
	}
	jobID, err := d.SubmitGeneration()
	if err != nil {
		return Summary{}, err
	}
	if err := d.AwaitGeneration(ctx, jobID); err != nil {
		return Summary{}, err
	}
	return d.Postprocess()
}

// DetectPocket runs the pocket detector on the input structure and
// returns the path of the pocket with the configured rank.
func (d *Driver) DetectPocket() (string, error) {
	results, err := d.Fpocket.Run(d.Structure)
	if err != nil {
		return "", fmt.Errorf("Pocket detection failed for '%s': %s",
			d.Structure, err)
	}

	rank := d.PocketRank
	if rank == 0 {
		rank = 1
	}
	pocketPath, err := results.Pocket(rank)
	if err != nil {
		return "", err
	}
	d.State = PocketDetected
	return pocketPath, nil
}

// GenerateConfig extracts the binding residues from the detected pocket
// and writes the design configuration into the base directory, next to a
// copy of the input structure.
func (d *Driver) GenerateConfig(pocketPath string) (err error) {
	residues, err := fpocket.Residues(pocketPath)
	if err != nil {
		return fmt.Errorf("Could not extract binding residues from "+
			"'%s': %s", pocketPath, err)
	}

	dest := path.Join(d.Ctx.BaseDir, path.Base(d.Structure))
	if !sameFile(d.Structure, dest) {
		if err := copyFile(d.Structure, dest); err != nil {
			return fmt.Errorf("Could not copy '%s' into the run "+
				"directory: %s", d.Structure, err)
		}
	}

	f, err := os.Create(d.Ctx.ConfigPath())
	if err != nil {
		return err
	}
	defer f.Close()

	err = boltzgen.WriteConfig(f, dest, d.Ctx.TargetChain, residues, d.Lengths)
	if err != nil {
		return err
	}
	d.State = ConfigGenerated
	return nil
}

// WriteScript writes the generation batch script into the base
// directory: one generator invocation per alpha group, each writing into
// its own per-alpha directory.
func (d *Driver) WriteScript() error {
	if _, err := os.Stat(d.Ctx.ConfigPath()); err != nil {
		return fmt.Errorf("Cannot script generation without a design "+
			"configuration: %s", err)
	}

	script := slurm.Script{
		Name: "pepscreen-gen",
		GPUs: 1,
	}
	for _, alpha := range d.Ctx.Alphas {
		alphaPath := d.Ctx.AlphaPath(alpha)
		if err := os.MkdirAll(alphaPath, 0755); err != nil {
			return err
		}
		script.Commands = append(script.Commands,
			d.BoltzGen.CommandLine(d.Ctx.ConfigPath(), alphaPath, alpha))
	}
	return script.WriteFile(d.Ctx.ScriptPath())
}

// SubmitGeneration writes the generation batch script and submits it to
// the queue.
func (d *Driver) SubmitGeneration() (string, error) {
	if err := d.WriteScript(); err != nil {
		return "", err
	}

	jobID, err := d.Slurm.Submit(d.Ctx.ScriptPath())
	if err != nil {
		return "", fmt.Errorf("Could not submit the generation job: %s", err)
	}
	d.State = GenerationSubmitted
	return jobID, nil
}

// AwaitGeneration waits for the generation job to leave the queue, then
// verifies that every alpha group produced at least one structure. A job
// that leaves the queue without its outputs is a fatal error: the
// pipeline never resubmits on its own.
func (d *Driver) AwaitGeneration(ctx context.Context, jobID string) error {
	if err := d.Slurm.Wait(ctx, jobID); err != nil {
		return err
	}

	for _, alpha := range d.Ctx.Alphas {
		names, err := boltzgen.Structures(d.Ctx.AlphaPath(alpha))
		if err != nil || len(names) == 0 {
			return fmt.Errorf("Generation job %s left the queue but "+
				"produced no structures in '%s'. Check the job logs and "+
				"resubmit; the pipeline will not retry on its own.",
				jobID, d.Ctx.AlphaPath(alpha))
		}
	}
	d.State = GenerationComplete
	return nil
}

// sameFile reports whether a and b name the same existing file. Copying
// a file onto itself would truncate it, and string comparison of the two
// paths cannot be trusted ("./x.cif" and "x.cif" are the same file).
func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
