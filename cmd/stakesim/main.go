package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"

	"github.com/rony4d/go-stakesim/chain"
	"github.com/rony4d/go-stakesim/cmd/stakesim/launcher"
)

func main() {

	// Gather the full list of command-line arguments
	arguments := os.Args

	// Call into the launcher and capture any resulting error
	err := launcher.Launch(arguments)

	if err != nil {
		report(os.Stderr, err)

		// Exit with a non-zero status code to indicate failure
		os.Exit(1)
	}
}

// report prints err for the user. A broken ledger invariant means the engine
// itself is wrong, not the input, so it is also logged with its block.
func report(w io.Writer, err error) {
	var inv *chain.InvariantError
	if errors.As(err, &inv) {
		log.Error("Simulation aborted", "block", inv.BlockID, "height", inv.Height, "err", err)
	}
	fmt.Fprintln(w, "Error:", err)
}
