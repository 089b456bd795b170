// Package slurm submits batch scripts to a Slurm queue and waits for the
// resulting jobs to leave it.
//
// There is deliberately no cancellation of submitted jobs here: once the
// generation job is on the queue, the only control this pipeline has is
// to stop waiting. Cancelling the job itself is an operator action.
package slurm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/cmd"
)

// DefaultConfig provides sane defaults for talking to Slurm.
var DefaultConfig = Config{
	Sbatch:       "sbatch",
	Squeue:       "squeue",
	PollInterval: 30 * time.Second,
	MaxWait:      24 * time.Hour,
	Verbose:      false,
}

// Config specifies the Slurm executables and the polling behavior of
// Wait.
type Config struct {
	// Sbatch and Squeue point to the corresponding Slurm executables.
	Sbatch string
	Squeue string

	// PollInterval is how often Wait queries the queue.
	PollInterval time.Duration

	// MaxWait bounds the total time Wait will poll before giving up.
	// A zero MaxWait means no bound.
	MaxWait time.Duration

	// When true, the commands executed are printed to stderr.
	Verbose bool
}

// Submit hands a batch script to sbatch and returns the job identifier
// assigned by the queue.
func (conf Config) Submit(scriptPath string) (string, error) {
	if _, err := os.Stat(scriptPath); err != nil {
		return "", fmt.Errorf("Could not access batch script '%s': %s",
			scriptPath, err)
	}

	var stdout bytes.Buffer
	c := cmd.New(conf.Sbatch, scriptPath)
	c.Cmd.Stdout = &stdout
	if conf.Verbose {
		fmt.Fprintf(os.Stderr, "%s\n", c)
	}
	if err := c.Run(); err != nil {
		return "", err
	}

	// sbatch reports "Submitted batch job <id>".
	fields := strings.Fields(strings.TrimSpace(stdout.String()))
	if len(fields) == 0 {
		return "", fmt.Errorf("sbatch produced no output for '%s'.",
			scriptPath)
	}
	return fields[len(fields)-1], nil
}

// Wait polls the queue until the given job disappears from it, the
// context is cancelled, or the MaxWait bound elapses. A job leaving the
// queue says nothing about whether it succeeded; callers must verify the
// job's expected outputs themselves.
func (conf Config) Wait(ctx context.Context, jobID string) error {
	var giveUp <-chan time.Time
	if conf.MaxWait > 0 {
		timer := time.NewTimer(conf.MaxWait)
		defer timer.Stop()
		giveUp = timer.C
	}

	interval := conf.PollInterval
	if interval <= 0 {
		interval = DefaultConfig.PollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		queued, err := conf.inQueue(jobID)
		if err != nil {
			return err
		}
		if !queued {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-giveUp:
			return fmt.Errorf("Job %s is still queued after %s; giving up "+
				"the wait. The job itself has not been cancelled.",
				jobID, conf.MaxWait)
		case <-ticker.C:
		}
	}
}

// inQueue reports whether the job still appears in squeue's output.
// squeue exits non-zero for a job identifier it no longer knows, which
// also means the job has left the queue.
func (conf Config) inQueue(jobID string) (bool, error) {
	var stdout bytes.Buffer
	c := cmd.New(conf.Squeue, "-h", "-j", jobID, "-o", "%i")
	c.Cmd.Stdout = &stdout
	if conf.Verbose {
		fmt.Fprintf(os.Stderr, "%s\n", c)
	}
	if err := c.Run(); err != nil {
		return false, nil
	}

	for _, line := range strings.Fields(stdout.String()) {
		if line == jobID {
			return true, nil
		}
	}
	return false, nil
}

// A Script is a batch script: a job name, resource directives and the
// commands to run, one per line.
type Script struct {
	Name      string
	Partition string
	GPUs      int
	Time      string
	Commands  []string
}

// Write writes the script to w in sbatch's format.
func (s Script) Write(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "#!/bin/sh"); err != nil {
		return err
	}
	if len(s.Name) > 0 {
		if _, err := fmt.Fprintf(w, "#SBATCH --job-name=%s\n", s.Name); err != nil {
			return err
		}
	}
	if len(s.Partition) > 0 {
		if _, err := fmt.Fprintf(w, "#SBATCH --partition=%s\n", s.Partition); err != nil {
			return err
		}
	}
	if s.GPUs > 0 {
		if _, err := fmt.Fprintf(w, "#SBATCH --gres=gpu:%d\n", s.GPUs); err != nil {
			return err
		}
	}
	if len(s.Time) > 0 {
		if _, err := fmt.Fprintf(w, "#SBATCH --time=%s\n", s.Time); err != nil {
			return err
		}
	}
	for _, command := range s.Commands {
		if _, err := fmt.Fprintln(w, command); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile writes the script to the file at path, marked executable.
func (s Script) WriteFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0755)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.Write(f)
}
