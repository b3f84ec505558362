package main

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

func TestServe_StopsOnCancel(t *testing.T) {
	var relayStopped atomic.Bool
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, logger.Discard(), servers{
			http:     &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()},
			grpc:     createGRPCServer(),
			grpcAddr: "127.0.0.1:0",
			relay: func(ctx context.Context) {
				<-ctx.Done()
				relayStopped.Store(true)
			},
		})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.True(t, relayStopped.Load())
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestServe_ListenFailureStopsEverything(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	var relayStopped atomic.Bool
	done := make(chan error, 1)
	go func() {
		done <- serve(context.Background(), logger.Discard(), servers{
			http:     &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()},
			grpc:     createGRPCServer(),
			grpcAddr: taken.Addr().String(),
			relay: func(ctx context.Context) {
				<-ctx.Done()
				relayStopped.Store(true)
			},
		})
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to listen on gRPC address")
		assert.True(t, relayStopped.Load(), "relay is stopped before serve returns")
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after listen failure")
	}
}
