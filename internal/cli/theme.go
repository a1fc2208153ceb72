package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/khafre/internal/theme"
)

func newThemeCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Inspect and convert color schemes",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Print the active color scheme as a Windows Terminal scheme",
		Example: "  khafre-term theme export --theme light\n" +
			"  khafre-term theme export --theme-file one-dark.toml",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := o.load(cmd, true)
			if err != nil {
				return err
			}
			defer e.Close()

			scheme, _, err := loadScheme(e.cfg().Theme)
			if err != nil {
				return err
			}
			data, err := theme.ExportWindowsTerminal(scheme)
			if err != nil {
				return fmt.Errorf("export %s: %w", scheme.Name, err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	return cmd
}
