package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vintro/wineresolver/internal/wine"
)

func newResolveCmd() *cobra.Command {
	var vintage int

	cmd := &cobra.Command{
		Use:   "resolve <wine name>",
		Short: "Resolve one wine name from the command line.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			q := wine.Query{Name: args[0]}
			if vintage > 0 {
				q.Vintage = &vintage
			}

			resolved, err := a.resolver.Resolve(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("resolve %q: %w", q.Name, err)
			}

			out, err := json.MarshalIndent(resolved, "", "  ")
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			cmd.Println(string(out))
			return nil
		},
	}

	cmd.Flags().IntVar(&vintage, "vintage", 0, "vintage year (omit for non-vintage)")
	return cmd
}
