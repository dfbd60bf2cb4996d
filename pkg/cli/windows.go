package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/andrew-torda/lobec/pdb"
	"github.com/andrew-torda/lobec/pdb/cmmn"
	"github.com/andrew-torda/lobec/pkg/config"
	"github.com/andrew-torda/lobec/pkg/region"
	"github.com/andrew-torda/lobec/pkg/selection"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newWindowsCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "windows file [chain]",
		Short: "Count C-alpha atoms in each candidate window of a structure",
		Long: `Count C-alpha atoms in each candidate window of a structure.

This reads one mmcif file (maybe gzipped), lists the chains with their
C-alpha counts and then, for the chain given or the best chain, the
number of C-alpha atoms and chain breaks in each window that the
superpose command would try.

Only the numeric windows are listed. With --strategy sequence, superpose
puts one more window in front of them, found by aligning the chain to
the reference sequence, and that needs the reference.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.RangeArgs(1, 2)(cmd, args); err != nil {
				return &UsageError{err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New(v)
			if err != nil {
				return &UsageError{err}
			}
			st, err := pdb.LoadLocal(args[0])
			if err != nil {
				return err
			}
			chain := ""
			if len(args) > 1 {
				chain = args[1]
			}
			return windows(cmd.OutOrStdout(), &cfg, st, chain)
		},
	}
	return cmd
}

func windows(w io.Writer, cfg *config.Config, st *cmmn.Structure, chain string) error {
	nw, err := cfg.NumericWindows()
	if err != nil {
		return err
	}
	strat, err := region.NewStrategy(cfg.Region.Strategy, nw, nil)
	if err != nil {
		return err
	}
	if _, ok := strat.(*region.SeqAnchor); ok {
		fmt.Fprintln(w, "strategy sequence: the window from the sequence alignment is not shown")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 3, ' ', 0)
	fmt.Fprintf(tw, "%s\n", st.Name())
	fmt.Fprintln(tw, "chain\tCA")
	for _, cc := range selection.ChainCounts(st) {
		fmt.Fprintf(tw, "%s\t%d\n", cc.Chain, cc.N)
	}
	if chain == "" {
		chain = selection.BestChain(st, minBestChain)
	}
	fmt.Fprintf(tw, "\nchain %s\n", chain)
	fmt.Fprintln(tw, "window\tCA\tbreaks")
	refSel := selection.CAlpha(chain, cfg.RefRange())
	for _, r := range nw.Windows(nil, chain, nil, refSel) {
		sel := refSel.WithRange(r)
		fmt.Fprintf(tw, "%s\t%d\t%d\n", r, sel.Count(st), len(sel.Breaks(st)))
	}
	return tw.Flush()
}

// minBestChain is the C-alpha count a chain needs to beat the first one.
const minBestChain = 200
