package main

import (
	"fmt"
	"io"
	"os"
)

// watchSignals cancels the crawl on the first signal and calls forceExit on
// the second. It returns once stop is closed.
func watchSignals(signals <-chan os.Signal, stop <-chan struct{}, cancel func(), forceExit func(), out io.Writer) {
	select {
	case <-signals:
		fmt.Fprintln(out, "\nReceived interrupt signal, finishing in-flight requests (press Ctrl+C again to force quit)...")
		cancel()
	case <-stop:
		return
	}

	select {
	case <-signals:
		fmt.Fprintln(out, "Forced shutdown")
		forceExit()
	case <-stop:
	}
}
