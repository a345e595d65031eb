package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hearthvm/hearth/pkg/api/handlers"
	"github.com/hearthvm/hearth/pkg/api/middleware"
	"github.com/hearthvm/hearth/pkg/log"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port       int
	TLS        *TLSConfig
	Controller handlers.Controller
}

// NewAPIServer creates a new http.Server exposing the engine control API.
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	router := mux.NewRouter()
	router.Use(middleware.NewLoggingMiddleware())

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/status", handlers.HandleStatus(opts.Controller)).Methods(http.MethodGet)
	apiRouter.HandleFunc("/pause", handlers.HandlePause(opts.Controller)).Methods(http.MethodPost)
	apiRouter.HandleFunc("/resume", handlers.HandleResume(opts.Controller)).Methods(http.MethodPost)
	apiRouter.HandleFunc("/quit", handlers.HandleQuit(opts.Controller)).Methods(http.MethodPost)
	apiRouter.HandleFunc("/sync-sound", handlers.HandleSyncSound(opts.Controller)).Methods(http.MethodPost)
	apiRouter.HandleFunc("/saves", handlers.HandleListSaves(opts.Controller)).Methods(http.MethodGet)
	apiRouter.HandleFunc("/saves/{slot}", handlers.HandleSaveGame(opts.Controller)).Methods(http.MethodPost)
	apiRouter.HandleFunc("/saves/{slot}/load", handlers.HandleLoadGame(opts.Controller)).Methods(http.MethodPost)
	apiRouter.HandleFunc("/saves/{slot}", handlers.HandleDeleteSave(opts.Controller)).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/events", handlers.HandleEvents(opts.Controller)).Methods(http.MethodGet)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
