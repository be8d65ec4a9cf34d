package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const scaffoldMain = `package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/agentweave/agentweave"
	"github.com/agentweave/agentweave/core"
	"github.com/agentweave/agentweave/model/gemini"
	"github.com/agentweave/agentweave/pipeline"
)

func main() {
	_ = godotenv.Load()

	m := gemini.NewModel(func(o *gemini.Options) {
		o.APIKey = os.Getenv("GOOGLE_API_KEY")
	})

	weave := agentweave.New(pipeline.NewBlogPipeline(m))

	text, _, err := weave.RunAndWait(context.Background(), "local",
		core.NewUserText("Write a blog post about multi-agent systems"))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(text)
}
`

const scaffoldEnv = `# API keys for the configured provider. Loaded by godotenv at startup.
GOOGLE_API_KEY=
OPENAI_API_KEY=
ANTHROPIC_API_KEY=
`

const scaffoldConfig = `provider: %s
model: %s
retry:
  max_attempts: 5
  initial_delay: 1s
  max_delay: 10m
  backoff_multiplier: 7
  retryable_status_codes: [429, 500, 503, 504]
max_loop_iterations: 10
max_model_calls: 100
server:
  addr: ":8080"
`

func newCreateCmd() *cobra.Command {
	var provider string
	var modelName string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Scaffold a new agent project directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if err := os.MkdirAll(name, 0o755); err != nil {
				return fmt.Errorf("failed to create project directory: %w", err)
			}

			files := map[string]string{
				"main.go":     scaffoldMain,
				".env":        scaffoldEnv,
				"config.yaml": fmt.Sprintf(scaffoldConfig, provider, modelName),
			}

			for file, content := range files {
				path := filepath.Join(name, file)
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists", path)
				}
				if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (main.go, config.yaml, .env)\n", name)

			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "gemini", "model provider: gemini, openai or anthropic")
	cmd.Flags().StringVar(&modelName, "model", "gemini-2.0-flash", "provider model name")

	return cmd
}
