package main

import (
	"fmt"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	"github.com/agentweave/agentweave/config"
	"github.com/agentweave/agentweave/model"
	"github.com/agentweave/agentweave/model/anthropic"
	"github.com/agentweave/agentweave/model/gemini"
	"github.com/agentweave/agentweave/model/openai"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "agentweave",
		Short:         "Compose and run multi-agent LLM pipelines",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newCreateCmd(),
		newWebCmd(),
	)

	return root
}

// loadConfig reads the config file (or defaults) and resolves the API key
// from the environment when the file leaves it empty.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()

	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cfg.APIKey == "" {
		cfg.APIKey = apiKeyFromEnv(cfg.Provider)
	}

	return cfg, nil
}

func apiKeyFromEnv(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return os.Getenv("GOOGLE_API_KEY")
	}
}

// buildModel constructs the configured provider backend wrapped with the
// retry policy.
func buildModel(cfg *config.Config, optFns ...func(o *model.RetryOptions)) (model.Model, error) {
	var m model.Model

	switch cfg.Provider {
	case "gemini":
		m = gemini.NewModel(func(o *gemini.Options) {
			o.Model = cfg.Model
			o.APIKey = cfg.APIKey
		})
	case "openai":
		m = openai.NewModel(func(o *openai.Options) {
			o.Model = cfg.Model
			o.APIKey = cfg.APIKey
		})
	case "anthropic":
		m = anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(cfg.Model)
			o.APIKey = cfg.APIKey
		})
	case "mock":
		m = model.NewMockModel(cfg.Model, "mock")
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	return model.WithRetry(m, cfg.ToRetryConfig(), optFns...), nil
}
