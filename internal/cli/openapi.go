package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/apicontract/logger"
	"github.com/kbukum/apicontract/openapi"
)

func newOpenAPICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Export the manifest as an OpenAPI 3 document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if format != string(openapi.FormatYAML) && format != string(openapi.FormatJSON) {
				return newUsageError("--format must be yaml or json, got %q", format)
			}

			s, err := openSession(cmd)
			if err != nil {
				return err
			}

			info := openapi.Info{
				Title:       s.manifest.Name,
				Version:     s.manifest.Version,
				Description: cmdDescription(cmd),
				QueryKey:    s.cfg.Contract.QueryParameterKey,
			}
			servers, _ := cmd.Flags().GetStringSlice("server")
			if len(servers) == 0 {
				if base := firstNonEmpty(s.cfg.Contract.BaseURL, s.manifest.BaseURL); base != "" {
					servers = []string{base}
				}
			}
			info.Servers = servers

			ops := make([]openapi.Operation, 0, len(s.contracts))
			for _, c := range s.contracts {
				ops = append(ops, openapi.Operation{
					ID:         c.Name,
					Summary:    c.Summary,
					Tags:       c.Tags,
					Descriptor: c.Descriptor,
				})
			}
			doc, err := openapi.Generate(cmd.Context(), info, ops)
			if err != nil {
				return err
			}
			data, err := openapi.Encode(doc, openapi.Format(format))
			if err != nil {
				return err
			}

			out, _ := cmd.Flags().GetString("out")
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			s.log.Info("OpenAPI document written", logger.Fields("file", out, "operations", len(ops)))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("format", "f", "yaml", "output format (yaml|json)")
	flags.StringP("out", "o", "", "output file (default stdout)")
	flags.StringSlice("server", nil, "server URLs (default: the configured or manifest base URL)")
	flags.String("description", "", "API description")
	return cmd
}

func cmdDescription(cmd *cobra.Command) string {
	d, _ := cmd.Flags().GetString("description")
	return d
}
