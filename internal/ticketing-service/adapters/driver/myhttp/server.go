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
	"busline/internal/ticketing-service/adapters/driven/bm"
	"busline/internal/ticketing-service/adapters/driven/db"
	"busline/internal/ticketing-service/adapters/driver/myhttp/handle"
	"busline/internal/ticketing-service/adapters/driver/myhttp/middleware"
	"busline/internal/ticketing-service/adapters/driver/myhttp/ws"
	"busline/internal/ticketing-service/core/ports"
	"busline/internal/ticketing-service/core/services"
)

const WaitTime = 10

type Server struct {
	mux       *http.ServeMux
	cfg       *config.Config
	srv       *http.Server
	mylog     mylogger.Logger
	collector *metrics.Collector
	db        *db.DB
	broker    ports.IBrokerMessage
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

	if err := s.initializeBroker(); err != nil {
		mylog.Action("mb_connection_failed").Error("Failed to connect to rabbitmq", err)
		return err
	}
	mylog.Action("mb_connected").Info("Successful rabbitmq connection")

	s.Configure()

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%v", s.cfg.Srv.TicketingServicePort),
		Handler: s.mux,
	}
	s.mu.Unlock()

	mylog = mylog.WithGroup("details").With("port", s.cfg.Srv.TicketingServicePort)
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

	if s.broker != nil {
		if err := s.broker.Close(); err != nil {
			s.mylog.Action("mb_close_failed").Error("Failed to close rabbitmq connection", err)
			return fmt.Errorf("broker close: %w", err)
		}
		s.mylog.Action("mb_closed").Info("Broker closed")
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
	ticketRepo := db.NewTicketRepo(s.db)
	tripReader := db.NewTripReader(s.db)

	dispatcher := ws.NewDispatcher(s.mylog)
	holds := services.NewHoldRegistry(time.Duration(s.cfg.App.SeatHoldTTLMinutes) * time.Minute)

	ticketService := services.NewTicketService(s.appCtx, s.mylog, s.collector,
		holds, ticketRepo, tripReader, s.broker, dispatcher)

	ticketHandler := handle.NewTicketHandler(ticketService, s.mylog)

	authMiddleware := middleware.NewAuthMiddleware(s.cfg.App.JwtSecret)

	s.mux.Handle("GET /trips/{trip_id}/seats", ticketHandler.GetTripSeats())
	s.mux.Handle("GET /trips/{trip_id}/fare", ticketHandler.QuoteFare())
	s.mux.Handle("GET /trips/{trip_id}/watch", dispatcher.WatchHandler())

	s.mux.Handle("POST /seats/hold", ticketHandler.HoldSeat())
	s.mux.Handle("POST /seats/release", ticketHandler.ReleaseSeat())

	s.mux.Handle("POST /tickets", ticketHandler.CreateTicket())
	s.mux.Handle("PATCH /tickets/{ticket_id}/pay", authMiddleware.Wrap(ticketHandler.ConfirmPayment()))
	s.mux.Handle("POST /tickets/use", authMiddleware.Wrap(ticketHandler.UseTicket()))
	s.mux.Handle("DELETE /tickets/{ticket_id}", authMiddleware.Wrap(ticketHandler.CancelTicket()))
}

func (s *Server) initializeDatabase() error {
	conn, err := db.New(s.ctx, s.cfg.DB, s.mylog)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = conn
	return nil
}

func (s *Server) initializeBroker() error {
	broker, err := bm.New(s.ctx, *s.cfg.RabbitMq, s.mylog)
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	s.broker = broker
	return nil
}
