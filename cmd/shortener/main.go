package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/sync/errgroup"

	"github.com/atinyakov/shorty/internal/app/server"
	"github.com/atinyakov/shorty/internal/app/server/grpc"
	"github.com/atinyakov/shorty/internal/app/service"
	"github.com/atinyakov/shorty/internal/codegen"
	"github.com/atinyakov/shorty/internal/config"
	"github.com/atinyakov/shorty/internal/logger"
	"github.com/atinyakov/shorty/internal/worker"

	_ "net/http/pprof"
)

var buildVersion string
var buildDate string
var buildCommit string

const (
	pprofAddr       = "localhost:6060"
	shutdownTimeout = 10 * time.Second
)

func main() {
	printBuildInfo(os.Stdout)

	options, err := config.Parse()
	if err != nil {
		exit(err)
	}

	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		exit(err)
	}
	log.Info("configuration loaded",
		"storage", string(options.Storage()),
		"base_url", options.ResultHostname,
		"grpc_address", options.GRPCAddress,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	err = run(ctx, options, log.Log)
	stop()
	if err != nil {
		log.Log.Error("shortener stopped with error", zap.Error(err))
		log.Sync()
		exit(err)
	}
	log.Sync()
}

func exit(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func printBuildInfo(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", valueOrNA(buildVersion))
	fmt.Fprintf(w, "Build date: %s\n", valueOrNA(buildDate))
	fmt.Fprintf(w, "Build commit: %s\n", valueOrNA(buildCommit))
}

func valueOrNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

// run serves until ctx is cancelled or one of the servers fails, then shuts
// everything down and closes the storage.
func run(ctx context.Context, options *config.Options, zapLogger *zap.Logger) error {
	store, closer, err := openStorage(ctx, options, zapLogger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := closer.Close(); err != nil {
			zapLogger.Error("failed to close storage", zap.Error(err))
		}
	}()

	urlService := service.NewURL(store, codegen.New(options.CodeLength), zapLogger,
		service.WithMaxAttempts(options.MaxAttempts))
	router := server.Init(options.ResultHostname, zapLogger, urlService)

	g, ctx := errgroup.WithContext(ctx)

	httpServer := newHTTPServer(options, router)
	g.Go(func() error {
		zapLogger.Info("Server is running",
			zap.String("addr", httpServer.Addr),
			zap.Bool("tls", options.EnableHTTPS),
			zap.String("storage", string(options.Storage())),
		)

		var err error
		if options.EnableHTTPS {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		zapLogger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if options.GRPCAddress != "" {
		grpcServer := grpc.New(options.ResultHostname, zapLogger, urlService, options.GRPCAddress)
		healthWorker := worker.NewHealthWorker(zapLogger, store, grpcServer.Health(),
			worker.DefaultHealthInterval, "", grpc.ServiceName)

		g.Go(grpcServer.Start)
		g.Go(func() error {
			return healthWorker.Run(ctx)
		})
		g.Go(func() error {
			<-ctx.Done()
			zapLogger.Info("shutting down gRPC server")
			grpcServer.GracefulStop()
			return nil
		})
	}

	if options.EnablePprof {
		pprofServer := &http.Server{Addr: pprofAddr, Handler: http.DefaultServeMux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			zapLogger.Info("Starting pprof server", zap.String("addr", pprofAddr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zapLogger.Error("pprof server error", zap.Error(err))
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return pprofServer.Close()
		})
	}

	return g.Wait()
}

func newHTTPServer(options *config.Options, handler http.Handler) *http.Server {
	srv := &http.Server{
		Addr:              options.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if options.EnableHTTPS {
		manager := &autocert.Manager{
			// directory for cached certificates
			Cache: autocert.DirCache("cache-dir"),
			// accept the certificate issuer's Terms of Service
			Prompt: autocert.AcceptTOS,
			// domains certificates are issued for
			HostPolicy: autocert.HostWhitelist(hostsOf(options.ResultHostname)...),
		}
		srv.Addr = ":443"
		srv.TLSConfig = manager.TLSConfig()
	}

	return srv
}
