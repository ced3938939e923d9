package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/okraft/settle/internal/commit"
	"github.com/okraft/settle/internal/config"
	"github.com/okraft/settle/internal/event"
	"github.com/okraft/settle/internal/listing"
	"github.com/okraft/settle/internal/targetfs"
	"github.com/okraft/settle/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "settle: config: %v\n", err)
		return 1
	}

	var verbose bool
	root := &cobra.Command{
		Use:           "settle",
		Short:         "Reconcile the staged output of a distributed copy job into its final target tree",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if !verbose && cfg.Defaults.Verbose != nil {
				verbose = *cfg.Defaults.Verbose
			}
			setupLogging(verbose)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newCommitCmd(cfg, &verbose), newSortListingCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "settle: %v\n", err)
		return 1
	}
	return 0
}

// setupLogging keeps diagnostics on stderr out of the presenter's way:
// warnings and up by default, everything with --verbose.
func setupLogging(verbose bool) {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(
		zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339},
	).Level(level).With().Timestamp().Logger()
}

type commitFlags struct {
	sourceListing    string
	workPath         string
	finalPath        string
	metaFolder       string
	attemptID        string
	filters          string
	preserveAttrs    targetfs.AttrSet
	syncFolders      bool
	overwrite        bool
	targetPathExists bool
	ignoreFailures   bool
	deleteMissing    bool
	atomicCommit     bool
	preserveRaw      bool
	journal          bool
	quiet            bool
	bulkDeleteLimit  int
}

func newCommitCmd(cfg config.Config, verbose *bool) *cobra.Command {
	var f commitFlags

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Run the commit phase against a staged work tree",
		RunE: func(cmd *cobra.Command, _ []string) error {
			applyDefaults(cmd, cfg, &f)
			return runCommit(f, *verbose)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.sourceListing, "source-listing", "", "path to the source copy listing")
	fl.StringVar(&f.workPath, "work-path", "", "staged work tree written by the transfer phase")
	fl.StringVar(&f.finalPath, "final-path", "", "final target tree (defaults to the work path)")
	fl.StringVar(&f.metaFolder, "meta-folder", "", "job meta folder, removed when the commit finishes")
	fl.StringVar(&f.attemptID, "attempt-id", "", "attempt ID used in worker temp file names")
	fl.StringVar(&f.filters, "filters", "", "rules file protecting excluded target paths from delete-missing")
	fl.Var(&attrsFlag{set: &f.preserveAttrs}, "preserve", "directory attributes to preserve (letters ugptx)")
	fl.BoolVar(&f.syncFolders, "sync-folders", false, "run is a sync into an existing tree")
	fl.BoolVar(&f.overwrite, "overwrite", false, "run overwrites an existing tree")
	fl.BoolVar(&f.targetPathExists, "target-path-exists", true, "final target path existed before the job")
	fl.BoolVar(&f.ignoreFailures, "ignore-failures", false, "downgrade listing inconsistencies to warnings")
	fl.BoolVar(&f.deleteMissing, "delete-missing", false, "delete target entries missing at source")
	fl.BoolVar(&f.atomicCommit, "atomic-commit", false, "promote the work tree with one rename")
	fl.BoolVar(&f.preserveRaw, "preserve-raw-xattrs", false, "preserve raw extended attributes on directories")
	fl.BoolVar(&f.journal, "journal", true, "record reassembled files so retries skip completed work")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "suppress progress output")
	fl.IntVar(&f.bulkDeleteLimit, "bulk-delete-limit", 0, "bulk delete page size (0 disables bulk deletes)")

	_ = cmd.MarkFlagRequired("work-path")
	return cmd
}

// applyDefaults fills unset flags from the optional config file.
func applyDefaults(cmd *cobra.Command, cfg config.Config, f *commitFlags) {
	d := cfg.Defaults
	if !cmd.Flags().Changed("ignore-failures") && d.IgnoreFailures != nil {
		f.ignoreFailures = *d.IgnoreFailures
	}
	if !cmd.Flags().Changed("journal") && d.Journal != nil {
		f.journal = *d.Journal
	}
	if !cmd.Flags().Changed("preserve") && d.Preserve != nil {
		if set, err := targetfs.ParseAttrSet(*d.Preserve); err == nil {
			f.preserveAttrs = set
		} else {
			log.Warn().Err(err).Msg("ignoring preserve default from config")
		}
	}
	if !cmd.Flags().Changed("preserve-raw-xattrs") && d.PreserveRaw != nil {
		f.preserveRaw = *d.PreserveRaw
	}
}

func runCommit(f commitFlags, verbose bool) error {
	if f.finalPath == "" {
		f.finalPath = f.workPath
	}
	if f.atomicCommit && f.finalPath == f.workPath {
		return errors.New("atomic commit requires a final path distinct from the work path")
	}

	cc := commit.Context{
		SyncFolders:       f.syncFolders,
		Overwrite:         f.overwrite,
		TargetPathExists:  f.targetPathExists,
		IgnoreFailures:    f.ignoreFailures,
		DeleteMissing:     f.deleteMissing,
		AtomicCommit:      f.atomicCommit,
		PreserveAttrs:     f.preserveAttrs,
		PreserveRawXattrs: f.preserveRaw,
		FiltersPath:       f.filters,
		SourceListingPath: f.sourceListing,
		TargetWorkPath:    f.workPath,
		TargetFinalPath:   f.finalPath,
		MetaFolder:        f.metaFolder,
		AttemptID:         f.attemptID,
	}

	var opts []targetfs.LocalOption
	if f.bulkDeleteLimit > 0 {
		opts = append(opts, targetfs.WithBulkDeleteLimit(f.bulkDeleteLimit))
	}
	tfs := targetfs.NewLocal(opts...)

	var journal *commit.Journal
	var err error
	if f.journal {
		journal, err = commit.OpenJournal(f.workPath, f.finalPath)
		if err != nil {
			log.Warn().Err(err).Msg("journal unavailable, retries will redo completed work")
		}
	}

	presenter := ui.NewPresenter(ui.Config{
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Root:      f.finalPath,
		IsTTY:     ui.IsTTY(os.Stderr.Fd()),
		Quiet:     f.quiet,
		Verbose:   verbose,
	})

	events := make(chan event.Event, 256)
	done := make(chan struct{})
	go func() {
		defer close(done)
		presenter.Run(events)
	}()

	orch := commit.New(cc, tfs, commit.Options{
		BuildTargetListing: func(path string) error {
			return listing.Build(afero.NewOsFs(), f.finalPath, path)
		},
		Events:  events,
		Journal: journal,
	})

	err = orch.Commit()
	close(events)
	<-done

	snap := orch.Stats()
	if err != nil {
		log.Error().Err(err).Str("stats", snap.String()).Msg(orch.Status())
		return err
	}
	if summary := presenter.Summary(snap); summary != "" {
		fmt.Fprintln(os.Stderr, summary)
	}
	return nil
}

// attrsFlag is a pflag.Value that parses a preserve-status spec directly
// into an AttrSet.
type attrsFlag struct {
	set *targetfs.AttrSet
}

var _ pflag.Value = (*attrsFlag)(nil)

func (a *attrsFlag) String() string {
	if a.set == nil {
		return ""
	}
	return a.set.String()
}

func (a *attrsFlag) Type() string { return "string" }

func (a *attrsFlag) Set(s string) error {
	set, err := targetfs.ParseAttrSet(s)
	if err != nil {
		return err
	}
	*a.set = set
	return nil
}

func newSortListingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sort-listing <listing>",
		Short: "Rewrite a listing file in ascending key order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sorted, err := listing.SortFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sorted)
			return nil
		},
	}
}
