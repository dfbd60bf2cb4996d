package cli

import (
	"fmt"

	"github.com/andrew-torda/lobec/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newFetchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download every structure in a manifest into the cache",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bind(v, cmd, map[string]string{"manifest": "manifest"})
			cfg, err := config.New(v)
			if err != nil {
				return &UsageError{err}
			}
			m, err := readManifest(&cfg)
			if err != nil {
				return err
			}
			s, err := session(&cfg, cmd)
			if err != nil {
				return err
			}
			nFail, err := s.Fetch(cmd.Context(), m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d in %s, %d failed\n",
				len(m.Entries)-nFail, len(m.Entries), cfg.CacheDir, nFail)
			if nFail > 0 {
				return fmt.Errorf("%d structures could not be fetched", nFail)
			}
			return nil
		},
	}
	cmd.Flags().StringP("manifest", "m", "", "csv report listing the structures")
	return cmd
}
