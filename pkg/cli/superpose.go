package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/andrew-torda/lobec/pkg/common"
	"github.com/andrew-torda/lobec/pkg/config"
	"github.com/andrew-torda/lobec/pkg/pipeline"
	"github.com/andrew-torda/lobec/pkg/region"
	"github.com/andrew-torda/lobec/pkg/results"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return &UsageError{err}
	}
	return nil
}

func newSuperposeCmd(v *viper.Viper) *cobra.Command {
	keys := map[string]string{
		"manifest":     "manifest",
		"out-dir":      "out-dir",
		"results":      "results.file",
		"extended":     "results.extended",
		"ref-id":       "reference.id",
		"ref-assembly": "reference.assembly",
		"ref-chain":    "reference.chain",
		"ref-start":    "reference.start",
		"ref-end":      "reference.end",
		"ref-file":     "reference.file",
		"mode":         "region.mode",
		"strategy":     "region.strategy",
		"cycles":       "align.cycles",
		"cutoff":       "align.cutoff",
		"min-aligned":  "quality.min-aligned",
	}
	cmd := &cobra.Command{
		Use:   "superpose",
		Short: "Superpose every structure in a manifest onto the reference",
		Long: `Superpose every structure in a manifest onto the reference.

For each row of the manifest (PDB ID, Assembly ID, Auth Asym ID) the
structure is loaded, the C-lobe window is found, the structure is
moved onto the reference and the RMSD is classified. The results go
to a csv table and each moved structure to {ID}_aligned.cif.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bind(v, cmd, keys)
			cfg, err := config.New(v)
			if err != nil {
				return &UsageError{err}
			}
			return superpose(cmd, &cfg)
		},
	}
	f := cmd.Flags()
	f.StringP("manifest", "m", "", "csv report listing the structures")
	f.StringP("out-dir", "o", "aligned", `directory for aligned structures, "" for none`)
	f.StringP("results", "r", results.DfltFile, "csv file for the result table")
	f.Bool("extended", false, "add Range and Note columns to the table")
	f.String("ref-id", "4WB8", "reference accession")
	f.String("ref-assembly", "1", "reference assembly")
	f.String("ref-chain", "A", "reference chain")
	f.Int("ref-start", 127, "first residue of the reference window")
	f.Int("ref-end", 350, "last residue of the reference window")
	f.String("ref-file", "", "read the reference from this file")
	f.String("mode", "fallback", "fallback: reference window first, search: always score windows")
	f.String("strategy", "numeric", "candidate windows: numeric or sequence")
	f.Int("cycles", 10, "outlier rejection cycles in the final fit")
	f.Float64("cutoff", 2.0, "outlier rejection cutoff in angstrom")
	f.Int("min-aligned", 0, "fewer aligned atoms than this is an error, 0 for no limit")
	return cmd
}

func superpose(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	m, err := readManifest(cfg)
	if err != nil {
		return err
	}
	s, err := session(cfg, cmd)
	if err != nil {
		return err
	}
	nw, err := cfg.NumericWindows()
	if err != nil {
		return err
	}
	strat, err := region.NewStrategy(cfg.Region.Strategy, nw, s.Log)
	if err != nil {
		return err
	}
	s.Resolver = region.NewResolver(cfg.RegionPolicy(), s.Log)
	s.Resolver.Strategy = strat
	s.Align = cfg.AlignOptions()
	s.Policy = cfg.QualityPolicy()
	s.Atom = cfg.Align.Atom
	s.OutDir = cfg.OutDir

	ref := pipeline.Reference{
		ID:       cfg.Reference.ID,
		Assembly: cfg.Reference.Assembly,
		Chain:    cfg.Reference.Chain,
		Range:    cfg.RefRange(),
		File:     cfg.Reference.File,
	}
	if err := s.LoadReference(ctx, ref); err != nil {
		return err
	}
	if s.OutDir != "" {
		if err := os.MkdirAll(s.OutDir, 0o755); err != nil {
			return fmt.Errorf("making output directory: %w", err)
		}
	}
	fp, err := common.CreateIn(filepath.Dir(cfg.Results.File), filepath.Base(cfg.Results.File))
	if err != nil {
		return err
	}
	defer fp.Close()
	w := results.NewWriter(fp, cfg.Results.Extended)
	sum, runErr := s.Run(ctx, m, w)
	if sum != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "\nresults in %s\n", cfg.Results.File)
		if err := sum.Print(cmd.OutOrStdout()); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}
	return fp.Close()
}
