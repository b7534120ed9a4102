// Command textserver serves the reverse-text and uppercase tools over stdio.
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"mcporch/servers"
)

func main() {
	if err := server.ServeStdio(servers.NewTextServer()); err != nil {
		fmt.Fprintf(os.Stderr, "textserver: %v\n", err)
		os.Exit(1)
	}
}
