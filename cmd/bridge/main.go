// Command bridge is the single binary exposing the authority server, the
// relayer, and committee/key generation (spec.md §6).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"xchain-bridge/cmd/cli"
)

func main() {
	// Best-effort .env load into the process environment, matching the
	// teacher's env-first CLI bootstrapping. No flag takes its default from
	// the environment. Absence of a .env file is not an error.
	_ = godotenv.Load()

	root := cli.NewRootCommand()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
