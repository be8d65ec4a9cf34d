// Command agentweave scaffolds agent projects and serves composed pipelines
// over HTTP. Environment resolution (.env, API keys) happens only here at
// the process edge; everything below receives explicit configuration.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
