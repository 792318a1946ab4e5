package main

import (
	"bytes"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchSignals_SecondSignalForcesExit(t *testing.T) {
	signals := make(chan os.Signal, 1)
	stop := make(chan struct{})
	cancelled := make(chan struct{})
	exited := make(chan struct{})
	var out bytes.Buffer

	done := make(chan struct{})
	go func() {
		defer close(done)
		watchSignals(signals, stop, func() { close(cancelled) }, func() { close(exited) }, &out)
	}()

	signals <- os.Interrupt
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("first signal did not cancel the crawl")
	}

	signals <- syscall.SIGTERM
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("second signal did not force an exit")
	}

	<-done
	assert.Contains(t, out.String(), "press Ctrl+C again to force quit")
	assert.Contains(t, out.String(), "Forced shutdown")
}

func TestWatchSignals_StopEndsWatcher(t *testing.T) {
	signals := make(chan os.Signal, 1)
	stop := make(chan struct{})
	var cancels, exits atomic.Int32

	done := make(chan struct{})
	go func() {
		defer close(done)
		watchSignals(signals, stop, func() { cancels.Add(1) }, func() { exits.Add(1) }, &bytes.Buffer{})
	}()

	signals <- os.Interrupt
	require.Eventually(t, func() bool { return cancels.Load() == 1 }, time.Second, 5*time.Millisecond)

	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not return after stop")
	}
	assert.Zero(t, exits.Load())
}
