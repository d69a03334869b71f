package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkwell-ai/inkgate/pkg/models"
	"github.com/inkwell-ai/inkgate/pkg/pricing"
	"github.com/inkwell-ai/inkgate/pkg/usage"
)

func newCostCmd() *cobra.Command {
	var (
		configPath string
		since      string
		showTable  bool
	)

	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Show estimated spend by provider and model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			if showTable {
				fmt.Print(formatPricingTable(pricing.New(cfg.Pricing).Table()))
				return nil
			}

			ul, err := usage.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = ul.Close() }()

			sinceTime := beginningOfMonth()
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date (use YYYY-MM-DD): %w", err)
				}
				sinceTime = t
			}

			summaries, err := ul.Summary(context.Background(), sinceTime)
			if err != nil {
				return err
			}

			fmt.Print(formatCostTable(summaries))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&since, "since", "", "start date (YYYY-MM-DD, default: start of month)")
	cmd.Flags().BoolVar(&showTable, "pricing", false, "print the effective pricing table instead")
	return cmd
}

func beginningOfMonth() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func formatCostTable(summaries []models.UsageSummary) string {
	if len(summaries) == 0 {
		return "No cost data found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %-25s %8s %12s %10s\n",
		"PROVIDER", "MODEL", "REQUESTS", "TOKENS", "EST. COST")
	b.WriteString(strings.Repeat("-", 71) + "\n")

	var totalCost float64
	for _, s := range summaries {
		fmt.Fprintf(&b, "%-12s %-25s %8d %12d $%9.4f\n",
			s.Provider, s.Model, s.RequestCount, s.TotalTokens, s.TotalCost)
		totalCost += s.TotalCost
	}
	b.WriteString(strings.Repeat("-", 71) + "\n")
	fmt.Fprintf(&b, "%59s $%9.4f\n", "TOTAL:", totalCost)
	return b.String()
}

func formatPricingTable(table []models.ModelPricing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %-25s %14s %14s\n",
		"PROVIDER", "MODEL", "INPUT / 1K", "OUTPUT / 1K")
	b.WriteString(strings.Repeat("-", 69) + "\n")
	for _, p := range table {
		fmt.Fprintf(&b, "%-12s %-25s %14.5f %14.5f\n",
			p.Provider, p.Model, p.InputCost, p.OutputCost)
	}
	return b.String()
}
