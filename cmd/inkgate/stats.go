package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkwell-ai/inkgate/pkg/usage"
)

func newStatsCmd() *cobra.Command {
	var (
		configPath string
		days       int
		recent     int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show usage statistics per provider and model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			ul, err := usage.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = ul.Close() }()

			ctx := context.Background()

			if recent > 0 {
				records, err := ul.Recent(ctx, recent)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Println("No usage data found.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tPROVIDER\tMODEL\tTOKENS\tCOST\tLATENCY\tOK")
				for _, r := range records {
					ok := "yes"
					if !r.Success {
						ok = r.ErrorKind
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t$%.6f\t%s\t%s\n",
						r.CreatedAt.Format("2006-01-02T15:04:05"), r.Provider, r.Model,
						r.TotalTokens, r.Cost, r.Latency, ok)
				}
				return w.Flush()
			}

			since := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
			summaries, err := ul.Summary(ctx, since)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("No usage data found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tMODEL\tREQUESTS\tFAILURES\tINPUT\tOUTPUT\tTOTAL\tCOST")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t$%.4f\n",
					s.Provider, s.Model, s.RequestCount, s.Failures,
					s.InputTokens, s.OutputTokens, s.TotalTokens, s.TotalCost)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().IntVar(&days, "days", 30, "lookback window in days")
	cmd.Flags().IntVar(&recent, "recent", 0, "show the N most recent requests instead")
	return cmd
}
