package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/vandry/get-longhorn-backup/internal/debug"
	"github.com/vandry/get-longhorn-backup/internal/errors"
	"github.com/vandry/get-longhorn-backup/internal/restorer"
	"github.com/vandry/get-longhorn-backup/internal/ui"
	restoreui "github.com/vandry/get-longhorn-backup/internal/ui/restore"
	"github.com/vandry/get-longhorn-backup/internal/ui/termstatus"
)

// RestoreOptions collects all options for restoring a backup.
type RestoreOptions struct {
	Gaps       restorer.GapPolicy
	Sparse     bool
	Verify     bool
	DryRun     bool
	BlockCache string
}

func (opts *RestoreOptions) AddFlags(f *pflag.FlagSet) {
	opts.Gaps = restorer.GapWarn
	f.Var(&opts.Gaps, "gaps", "what to do when a block does not start where the previous one ended, one of (error|warn|ignore)")
	f.BoolVar(&opts.Sparse, "sparse", false, "do not write zeros, leave holes in the destination file")
	f.BoolVar(&opts.Verify, "verify", false, "read back the destination file and compare it with the restored blocks")
	f.BoolVar(&opts.DryRun, "dry-run", false, "fetch and decompress all blocks without writing the destination file")
	f.StringVar(&opts.BlockCache, "block-cache", "0", "keep up to `size` of decompressed blocks in memory for repeated blocks, like 64M (default: disabled)")
}

// printer writes messages according to the verbosity.
type printer struct {
	term      ui.Terminal
	verbosity uint
	json      bool
}

// E prints an error or warning, always.
func (p *printer) E(msg string, args ...interface{}) {
	p.term.Error(fmt.Sprintf(msg, args...))
}

// P prints a message unless --quiet or --json was given.
func (p *printer) P(msg string, args ...interface{}) {
	if p.verbosity >= 1 && !p.json {
		p.term.Print(fmt.Sprintf(msg, args...))
	}
}

// V prints a message with --verbose.
func (p *printer) V(msg string, args ...interface{}) {
	if p.verbosity >= 2 && !p.json {
		p.term.Print(fmt.Sprintf(msg, args...))
	}
}

func newRestoreProgress(gopts GlobalOptions, term ui.Terminal) *restoreui.Progress {
	if gopts.Quiet {
		return nil
	}

	interval := time.Second
	if !term.CanUpdateStatus() {
		// no in-place updates, only print the occasional line
		interval = time.Minute
	}

	var pp restoreui.ProgressPrinter
	if gopts.JSON {
		pp = restoreui.NewJSONProgress(term)
	} else {
		pp = restoreui.NewTextProgress(term)
	}
	return restoreui.NewProgress(pp, interval)
}

func runRestore(ctx context.Context, opts RestoreOptions, gopts GlobalOptions, args []string) error {
	endpoint, region, bucket, manifestName, dst := args[0], args[1], args[2], args[3], args[4]
	if dst == "" {
		return errors.FatalCode(exitUsage, "destination file name is empty")
	}

	cacheSize, err := ui.ParseBytes(opts.BlockCache)
	if err != nil {
		return errors.FatalCode(exitUsage, "invalid --block-cache: %v", err)
	}

	term, cancel := termstatus.Setup(gopts.stdout, gopts.stderr, gopts.Quiet || gopts.JSON)
	defer cancel()
	p := &printer{term: term, verbosity: gopts.verbosity, json: gopts.JSON}

	be, err := OpenBackend(ctx, gopts, endpoint, region, bucket, p.E)
	if err != nil {
		return err
	}
	defer func() {
		_ = be.Close()
	}()

	p.V("restoring %v from %v to %v", manifestName, be.Location(), dst)

	var gaps int
	progress := newRestoreProgress(gopts, term)
	res := restorer.NewRestorer(be, restorer.Options{
		Gaps:      opts.Gaps,
		Sparse:    opts.Sparse,
		Verify:    opts.Verify,
		DryRun:    opts.DryRun,
		CacheSize: int(cacheSize),
		Progress:  progress,
		Warn: func(err error) {
			gaps++
			// every gap is reported with --verbose, otherwise only the first
			if gaps == 1 || gopts.verbosity >= 2 {
				p.E("Warning: %v", err)
			}
		},
	})

	summary, err := res.Restore(ctx, manifestName, dst)
	progress.Finish()
	debug.Log("restore finished after %v: %+v, err %v", summary.Duration, summary, err)
	if err != nil {
		return err
	}

	if gaps > 1 && gopts.verbosity < 2 {
		p.E("Warning: %d gaps in total, use --verbose to list all of them", gaps)
	}
	if opts.DryRun {
		p.P("dry run, %v decompressed, nothing written", ui.FormatBytes(summary.BytesRestored))
	} else {
		p.V("wrote %v to %v (%v)", ui.FormatBytes(summary.BytesWritten), dst, ui.FormatBytes(summary.Extent))
	}

	return nil
}
