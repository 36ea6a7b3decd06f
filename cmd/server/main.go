package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"presence-lab/infrastructure/grpc/server"
	"presence-lab/infrastructure/websocket"
	"presence-lab/internal"
	pb "presence-lab/proto/presence"
	"presence-lab/runtime"
	"presence-lab/runtime/workers"
	"presence-lab/services"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Only startup failures (configuration, port binding) are fatal.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	config, err := internal.LoadConfig()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Listeners first, a bind failure aborts before anything runs
	httpListener, err := net.Listen("tcp", config.HTTPAddress())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", config.HTTPAddress(), err)
	}
	grpcListener, err := net.Listen("tcp", config.GrpcAddress())
	if err != nil {
		_ = httpListener.Close()
		return fmt.Errorf("failed to listen on %s: %w", config.GrpcAddress(), err)
	}

	// 4. Room & Supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(log, sup,
		runtime.NewRegistry(), runtime.NewSinkDirectory(), runtime.SystemClock{},
		config.BufferSize, config.TypingQuietPeriod, config.MetricInterval)
	if err = orchestrator.Start(ctx); err != nil {
		return fmt.Errorf("orchestrator failed to start: %w", err)
	}
	defer orchestrator.Stop()

	service := services.NewPresenceService(log, orchestrator.Room(),
		orchestrator.Registry(), orchestrator.Sinks(), config.ConnectionBufferSize)

	// 5. Transports
	origins := config.Origins()
	handler := websocket.NewHandler(log, service, origins, config.MaxMessageSize)
	httpServer := &http.Server{
		Handler:           websocket.NewRouter(handler, origins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	grpcServer := grpc.NewServer()
	pb.RegisterPresenceServiceServer(grpcServer, server.NewPresenceServer(log, service))

	errChan := make(chan error, 2)
	go func() {
		log.Info("Starting websocket server", "address", config.HTTPAddress(), "origins", origins)
		if err := httpServer.Serve(httpListener); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()
	go func() {
		log.Info("Starting gRPC server", "address", config.GrpcAddress())
		if err := grpcServer.Serve(grpcListener); err != nil && !stderrors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 7. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		// Open streams only end when their client leaves
		grpcServer.Stop()
	}
	log.Info("Program stopped cleanly")
	return nil
}
