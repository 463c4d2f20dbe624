// Command sred drafts SR&ED technical narratives.
package main

import (
	"os"

	"github.com/custodia-labs/sred-drafter/internal/adapters/driving/cli"
)

func main() {
	cli.SetBuilder(build)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
