package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"chunkslate/internal/ai/completion"
)

var modelsOpts struct {
	baseURL string
	apiKey  string
	list    bool
	timeout time.Duration
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Check the completion endpoint and list its models",
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)

	flags := modelsCmd.Flags()
	flags.StringVar(&modelsOpts.baseURL, "base-url", "", "endpoint base URL (default: ai.base_url)")
	flags.StringVar(&modelsOpts.apiKey, "api-key", "", "API key (default: ai.api_key)")
	flags.BoolVar(&modelsOpts.list, "list", false, "print model ids")
	flags.DurationVar(&modelsOpts.timeout, "timeout", 30*time.Second, "request timeout")
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	baseURL, apiKey := modelsOpts.baseURL, modelsOpts.apiKey
	if baseURL == "" {
		baseURL = cfg.AI.BaseURL
	}
	if apiKey == "" {
		apiKey = cfg.AI.APIKey
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), modelsOpts.timeout)
	defer cancel()

	client := completion.NewClient()
	message, err := client.CheckConnection(ctx, baseURL, apiKey)
	if err != nil {
		return err
	}
	fmt.Println(message)

	if !modelsOpts.list {
		return nil
	}
	data, err := client.ListModels(ctx, baseURL, apiKey)
	if err != nil {
		return err
	}
	for _, modelID := range data.Get("data.#.id").Array() {
		fmt.Println(modelID.String())
	}
	return nil
}
