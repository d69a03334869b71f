package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newProvidersCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List providers ready to serve requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			g, cleanup, err := openGateway(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tLIMIT\tREMAINING\tRESET IN")
			for _, name := range g.AvailableProviders() {
				status := g.RateLimitStatus(name)
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", name, status.Limit, status.Remaining, status.ResetIn)
			}
			return w.Flush()
		},
	}

	testCmd := &cobra.Command{
		Use:   "test [provider]",
		Short: "Send a probe request through the full pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			g, cleanup, err := openGateway(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := g.TestConnection(context.Background(), args[0]); err != nil {
				return fmt.Errorf("%s: connection failed: %w", args[0], err)
			}
			fmt.Printf("%s: ok\n", args[0])
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.AddCommand(testCmd)
	return cmd
}
