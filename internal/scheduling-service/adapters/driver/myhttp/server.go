package myhttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"busline/internal/config"
	"busline/internal/metrics"
	"busline/internal/mylogger"
	"busline/internal/scheduling-service/adapters/driven/db"
	"busline/internal/scheduling-service/adapters/driver/myhttp/handle"
	"busline/internal/scheduling-service/adapters/driver/myhttp/middleware"
	"busline/internal/scheduling-service/core/services"
)

const WaitTime = 10

type Server struct {
	mux       *http.ServeMux
	cfg       *config.Config
	srv       *http.Server
	mylog     mylogger.Logger
	collector *metrics.Collector
	db        *db.DB
	ctx       context.Context
	appCtx    context.Context
	mu        sync.Mutex
}

func NewServer(ctx, appCtx context.Context, mylog mylogger.Logger, cfg *config.Config, collector *metrics.Collector) *Server {
	return &Server{
		ctx:       ctx,
		appCtx:    appCtx,
		cfg:       cfg,
		mylog:     mylog,
		collector: collector,
		mux:       http.NewServeMux(),
	}
}

// Run initializes routes and starts listening. It returns when the server stops.
func (s *Server) Run() error {
	mylog := s.mylog.Action("server_started")

	if err := s.initializeDatabase(); err != nil {
		mylog.Action("db_connection_failed").Error("Failed to connect to database", err)
		return err
	}
	mylog.Action("db_connected").Info("Successful database connection")

	s.Configure()

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%v", s.cfg.Srv.SchedulingServicePort),
		Handler: s.mux,
	}
	s.mu.Unlock()

	mylog = mylog.WithGroup("details").With("port", s.cfg.Srv.SchedulingServicePort)
	mylog.Info("server is running")

	return s.startHTTPServer()
}

// Stop provides a programmatic shutdown. Accepts a context for timeout control.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mylog.Action("graceful_shutdown_started").Info("Shutting down HTTP server...")

	if s.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, WaitTime*time.Second)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.mylog.Action("graceful_shutdown_failed").Error("Failed to shut down HTTP server gracefully", err)
			return fmt.Errorf("http server shutdown: %w", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.mylog.Action("db_close_failed").Error("Failed to close database", err)
			return fmt.Errorf("db close: %w", err)
		}
		s.mylog.Action("db_closed").Info("Database closed")
	}

	s.mylog.Action("graceful_shutdown_completed").Info("HTTP server shut down gracefully")

	return nil
}

func (s *Server) startHTTPServer() error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-s.ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Configure wires repositories, services and routes.
func (s *Server) Configure() {
	frequencyRepo := db.NewFrequencyRepo(s.db)
	tripRepo := db.NewTripRepo(s.db)
	busRepo := db.NewBusRepo(s.db)
	driverRepo := db.NewDriverRepo(s.db)

	frequencyService := services.NewFrequencyService(s.appCtx, s.mylog, frequencyRepo)
	tripGenerator := services.NewTripGenerator(s.appCtx, s.mylog, s.collector,
		s.cfg.App.TurnaroundMinutes, frequencyRepo, tripRepo, driverRepo)
	tripService := services.NewTripService(s.appCtx, s.mylog,
		s.cfg.App.TurnaroundMinutes, frequencyRepo, tripRepo, busRepo, driverRepo)
	routeSheetService := services.NewRouteSheetService(s.appCtx, s.mylog, tripRepo, busRepo)
	staffService := services.NewStaffService(s.appCtx, s.mylog, driverRepo)

	frequencyHandler := handle.NewFrequencyHandler(frequencyService, tripGenerator, s.mylog)
	tripHandler := handle.NewTripHandler(tripService, routeSheetService, s.mylog)
	staffHandler := handle.NewStaffHandler(staffService, s.mylog)

	authMiddleware := middleware.NewAuthMiddleware(s.cfg.App.JwtSecret)

	s.mux.Handle("POST /frequencies", authMiddleware.Wrap(frequencyHandler.CreateFrequency()))
	s.mux.Handle("PUT /frequencies/{frequency_id}", authMiddleware.Wrap(frequencyHandler.UpdateFrequency()))
	s.mux.Handle("DELETE /frequencies/{frequency_id}", authMiddleware.Wrap(frequencyHandler.DeactivateFrequency()))
	s.mux.Handle("POST /frequencies/generate-trips", authMiddleware.Wrap(frequencyHandler.GenerateTrips()))

	s.mux.Handle("POST /trips", authMiddleware.Wrap(tripHandler.CreateTrip()))
	s.mux.Handle("PUT /trips/{trip_id}", authMiddleware.Wrap(tripHandler.UpdateTrip()))
	s.mux.Handle("PATCH /trips/{trip_id}/status", authMiddleware.Wrap(tripHandler.UpdateTripStatus()))
	s.mux.Handle("PATCH /trips/{trip_id}/personnel", authMiddleware.Wrap(tripHandler.AssignPersonnel()))
	s.mux.Handle("GET /trips/search", tripHandler.SearchTrips())
	s.mux.Handle("GET /trips/route-sheet", authMiddleware.Wrap(tripHandler.GetRouteSheet()))

	s.mux.Handle("POST /staff/drivers", authMiddleware.Wrap(staffHandler.CreateDriver()))
}

func (s *Server) initializeDatabase() error {
	conn, err := db.New(s.ctx, s.cfg.DB, s.mylog)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = conn
	return nil
}
