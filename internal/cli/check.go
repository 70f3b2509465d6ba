package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the manifest and list its contracts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, c := range s.contracts {
				d := c.Descriptor
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Name, d.Method.HTTP(), d.Path, d.Capabilities())
			}
			if err := w.Flush(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d contracts OK\n", s.manifest.Name, len(s.contracts))
			return err
		},
	}
}
