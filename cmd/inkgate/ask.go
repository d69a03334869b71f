package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inkwell-ai/inkgate/pkg/models"
)

func newAskCmd() *cobra.Command {
	var (
		configPath   string
		providerName string
		model        string
		system       string
		projectID    string
		temperature  float64
		maxTokens    int
		topP         float64
	)

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Send a prompt through the gateway",
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

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			h, err := g.Submit(models.NormalizedRequest{
				Provider:     providerName,
				Model:        model,
				Prompt:       args[0],
				SystemPrompt: system,
				ProjectID:    projectID,
				Params: models.Params{
					Temperature: temperature,
					MaxTokens:   maxTokens,
					TopP:        topP,
				},
			})
			if err != nil {
				return err
			}

			resp, err := h.Result(ctx)
			if err != nil {
				return err
			}

			fmt.Println(resp.Text)

			cached := ""
			if resp.Cached {
				cached = ", cached"
			}
			cost := "unknown"
			if resp.CostKnown {
				cost = fmt.Sprintf("$%.6f", resp.Cost)
			}
			fmt.Fprintf(os.Stderr, "\n[%s/%s: %d in, %d out, cost %s%s]\n",
				resp.Provider, resp.Model, resp.InputTokens, resp.OutputTokens, cost, cached)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVarP(&providerName, "provider", "p", "", "provider (default from config)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "model (default from config)")
	cmd.Flags().StringVar(&system, "system", "", "system prompt")
	cmd.Flags().StringVar(&projectID, "project", "", "project ID for context assembly")
	cmd.Flags().Float64Var(&temperature, "temperature", 0.7, "sampling temperature (0-2)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "max output tokens (0 uses the default)")
	cmd.Flags().Float64Var(&topP, "top-p", 0, "nucleus sampling cutoff (0 disables)")
	return cmd
}
