// Command instacred resolves messaging-API instance credentials from the
// provider's log backend.
package main

import (
	"os"

	"github.com/tealgate/instacred/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
