package main

import (
	"chessreview/ui"
	"fmt"
	"os"
)

func main() {
	if err := ui.RunChessReview(); err != nil {
		fmt.Fprintf(os.Stderr, "error chessreview: %v\n", err)
		os.Exit(1)
	}
}
