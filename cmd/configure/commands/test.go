package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/aromi/coach-api/internal/config"
	"github.com/aromi/coach-api/internal/services/ai"
	"github.com/spf13/cobra"
)

// NewTestCmd creates the test command
func NewTestCmd() *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test AI gateway connectivity",
		Long:  "Send a small completion request to verify the configured AI gateway works",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if cfg.OpenRouterKey == "" {
				return fmt.Errorf("OPENROUTER_API_KEY is not configured")
			}

			gateway := ai.NewOpenRouterGateway(cfg.OpenRouterKey, cfg.AIBaseURL, cfg.AIModel)

			fmt.Printf("Testing AI gateway (key %s)\n", ai.SanitizeAPIKey(cfg.OpenRouterKey))

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			messages := []ai.Message{
				ai.SystemMessage("Respond with a JSON object of the form {\"ok\": true}."),
				ai.UserMessage("ping"),
			}
			response, err := gateway.CompleteStructured(ctx, messages, model)
			if err != nil {
				return fmt.Errorf("completion request failed: %w", err)
			}

			fmt.Println("✓ Gateway responded")
			fmt.Printf("Response: %s\n", ai.SanitizeResponse(response, false))
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Model to test (defaults to AI_MODEL)")
	return cmd
}
