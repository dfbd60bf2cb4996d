// Package cli is the lobec command tree. Each command gets its settings
// from one viper instance, built fresh by NewRootCmd.
package cli

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"

	"github.com/andrew-torda/lobec/pdb"
	"github.com/andrew-torda/lobec/pkg/common"
	"github.com/andrew-torda/lobec/pkg/config"
	"github.com/andrew-torda/lobec/pkg/manifest"
	"github.com/andrew-torda/lobec/pkg/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// UsageError is a problem with the command line rather than the data.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

// bind ties flags to settings keys. Flag and key names differ where
// the key sits in a section. Subcommands share one viper and a key has
// only one flag, so they bind when they run, not when they are built.
func bind(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			f = cmd.PersistentFlags().Lookup(flag)
		}
		if f == nil {
			panic("no flag " + flag)
		}
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	}
}

// NewRootCmd builds lobec and its subcommands.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	var settings string
	root := &cobra.Command{
		Use:   "lobec",
		Short: "Superpose the C-lobe of protein kinases onto a reference",
		Long: `lobec takes a list of kinase structures, superposes the C-lobe
of each onto a reference kinase and classifies the fit by its RMSD.
Structures are read from a local cache or fetched from the PDB.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Setup(v, settings)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{err}
	})
	pf := root.PersistentFlags()
	pf.StringVar(&settings, "settings", "", "yaml settings file")
	pf.String("log", "", `debug log: "" for none, "stdout" or a file name`)
	pf.String("cache-dir", "pdb_cache", "directory for downloaded structures")
	pf.IntP("workers", "w", 1, "structures processed at the same time")
	pf.Duration("timeout", 0, "time limit on each download, for example 30s")
	bind(v, root, map[string]string{
		"log":       "log",
		"cache-dir": "cache-dir",
		"workers":   "workers",
		"timeout":   "store.timeout",
	})

	root.AddCommand(newSuperposeCmd(v), newFetchCmd(v), newWindowsCmd(v))
	return root
}

// session builds the store and session from the settings.
func session(cfg *config.Config, cmd *cobra.Command) (*pipeline.Session, error) {
	logger, err := pdb.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	store := pdb.NewStore(cfg.CacheDir, cfg.Store.Timeout, logger)
	store.Mirrors = cfg.Mirrors()
	s := pipeline.NewSession(store, logger)
	s.Workers = cfg.Workers
	s.Out = cmd.OutOrStdout()
	return s, nil
}

func readManifest(cfg *config.Config) (*manifest.Manifest, error) {
	if cfg.Manifest == "" {
		return nil, &UsageError{errors.New("no manifest given, use --manifest")}
	}
	return manifest.ReadFile(cfg.Manifest)
}

// Execute runs the command line and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return run(ctx, NewRootCmd(), os.Args[1:])
}

func run(ctx context.Context, root *cobra.Command, args []string) int {
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return common.ExitSuccess
	}
	log.Print(err)
	var ue *UsageError
	if errors.As(err, &ue) {
		return common.ExitUsageError
	}
	return common.ExitFailure
}
