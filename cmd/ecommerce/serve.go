package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

// servers 进程内需要共同管理生命周期的组件
type servers struct {
	http     *http.Server
	grpc     *grpc.Server
	grpcAddr string
	// relay 在 ctx 结束前持续运行
	relay func(ctx context.Context)
}

// serve 启动全部组件并阻塞到 ctx 结束或任一组件失败，返回后各组件均已停止
func serve(ctx context.Context, log *slog.Logger, s servers) error {
	g, gctx := errgroup.WithContext(ctx)

	if s.relay != nil {
		g.Go(func() error {
			s.relay(gctx)
			return nil
		})
	}

	g.Go(func() error {
		log.Info("starting HTTP server", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	if s.grpc != nil {
		g.Go(func() error {
			listener, err := net.Listen("tcp", s.grpcAddr)
			if err != nil {
				return fmt.Errorf("failed to listen on gRPC address %s: %w", s.grpcAddr, err)
			}
			log.Info("starting gRPC server", "addr", s.grpcAddr)
			if err := s.grpc.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("gRPC server error: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down ecommerce service")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", "error", err)
		}
		if s.grpc != nil {
			s.grpc.GracefulStop()
		}
		return nil
	})

	return g.Wait()
}
