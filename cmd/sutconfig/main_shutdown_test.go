package main

import (
	"net/http"
	"os"
	osSignal "os/signal"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func sendSignalOnNotify(t *testing.T, sig os.Signal) {
	t.Helper()

	t.Cleanup(func() {
		signalNotify = osSignal.Notify
	})
	signalNotify = func(ch chan<- os.Signal, _ ...os.Signal) {
		go func() {
			ch <- sig
		}()
	}
}

func TestShutdownRunsServerHooks(t *testing.T) {
	sendSignalOnNotify(t, syscall.SIGTERM)

	server := &http.Server{}
	called := make(chan struct{}, 1)
	server.RegisterOnShutdown(func() {
		called <- struct{}{}
	})

	shutdown(server, time.Millisecond, zaptest.NewLogger(t))

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatalf("expected server shutdown callback to execute")
	}
}

func TestServeCommandStopsOnInterrupt(t *testing.T) {
	f := newCLIFixture(t)
	t.Setenv("PORT", "")
	sendSignalOnNotify(t, os.Interrupt)

	done := make(chan int, 1)
	go func() {
		code, _, _ := f.run(t, "serve", "--port", "127.0.0.1:0", "--rate-limit-rps", "0")
		done <- code
	}()

	select {
	case code := <-done:
		if code != exitOK {
			t.Fatalf("expected exit %d after interrupt, got %d", exitOK, code)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not return after interrupt")
	}
}
