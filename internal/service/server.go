package service

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/drksurvraze/orderbot/internal/handlers"
	"github.com/drksurvraze/orderbot/internal/metrics"
	middleware "github.com/drksurvraze/orderbot/internal/middlewares"
	"github.com/drksurvraze/orderbot/internal/middlewares/logger"
	"github.com/drksurvraze/orderbot/internal/store"
)

// ServerService owns the ops API HTTP server.
type ServerService struct {
	Server *http.Server
}

func NewServerService(rootContext context.Context, address string) ServerService {
	server := &http.Server{
		Addr: address,
		BaseContext: func(_ net.Listener) context.Context {
			return rootContext
		},
	}
	return ServerService{Server: server}
}

func (serverService *ServerService) SetRouter(st *store.Store, collector *metrics.Collector, jwtSecret string, startedAt time.Time) {
	serverService.Server.Handler = serverService.getRouter(st, collector, jwtSecret, startedAt)
}

func (serverService *ServerService) getRouter(st *store.Store, collector *metrics.Collector, jwtSecret string, startedAt time.Time) chi.Router {
	router := chi.NewRouter()

	router.Use(logger.RequestLogger)

	opsHandler := handlers.NewOpsHandler(st, collector, startedAt)
	router.Get("/api/ping", opsHandler.Ping)
	router.With(middleware.OpsAuth(jwtSecret)).Get("/api/orders", opsHandler.Orders)
	router.With(middleware.OpsAuth(jwtSecret)).Get("/api/stats", opsHandler.Stats)

	return router
}

func (serverService *ServerService) RunServer(serverErr *chan error) {
	if err := serverService.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		*serverErr <- err
	} else {
		*serverErr <- nil
	}
}

func (serverService *ServerService) Shutdown() error {
	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if shutdownErr := serverService.Server.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	return nil
}
