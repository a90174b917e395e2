package schedulingservice

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"busline/internal/config"
	"busline/internal/metrics"
	"busline/internal/mylogger"
	"busline/internal/scheduling-service/adapters/driver/myhttp"
)

func Execute(ctx context.Context, mylog mylogger.Logger, cfg *config.Config) error {
	newCtx, close := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer close()

	collector := metrics.NewCollector()
	go collector.Serve(cfg.Srv.MetricsAddr, mylog)

	server := myhttp.NewServer(newCtx, ctx, mylog, cfg, collector)

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- server.Run()
	}()

	select {
	case <-newCtx.Done():
		mylog.Action("shutdown_signal_received").Info("Shutdown signal received")
		return server.Stop(context.Background())
	case err := <-runErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			mylog.Action("scheduling_service_failed").Error("Server failed unexpectedly", err)
			return err
		}
		mylog.Action("server_stopped").Info("Server exited normally")
		return nil
	}
}
