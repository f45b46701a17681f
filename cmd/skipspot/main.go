// Command skipspot controls music playback with hand gestures and voice
// commands.
package main

import (
	"fmt"
	"os"

	"github.com/ayusman/skipspot/cmd/skipspot/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
