package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Dependencies are the collaborators the API server routes to. Faucet and
// Activity are optional.
type Dependencies struct {
	Marketplace   Marketplace
	MarketplaceID string
	Faucet        Faucet
	Activity      ActivityStore
	Metrics       *Metrics
}

// Server represents the API server
type Server struct {
	listingHandler  *ListingHandler
	assetHandler    *AssetHandler
	adminHandler    *AdminHandler
	balanceHandler  *BalanceHandler
	activityHandler *ActivityHandler
	metrics         *Metrics
	logger          *zap.Logger
	server          *http.Server
}

// NewServer creates a new API server
func NewServer(port int, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Marketplace == nil {
		return nil, fmt.Errorf("marketplace is required")
	}

	metrics := deps.Metrics
	if metrics == nil {
		metrics = NewMetrics(logger)
	}

	// WriteTimeout covers sign-and-submit plus effects, which can take well
	// over the read-only budget.
	return &Server{
		listingHandler:  NewListingHandler(deps.Marketplace, logger),
		assetHandler:    NewAssetHandler(deps.Marketplace, logger),
		adminHandler:    NewAdminHandler(deps.Marketplace, deps.MarketplaceID, logger),
		balanceHandler:  NewBalanceHandler(deps.Marketplace, deps.Faucet, logger),
		activityHandler: NewActivityHandler(deps.Activity, logger),
		metrics:         metrics,
		logger:          logger,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}, nil
}

// Start starts the API server
func (s *Server) Start() error {
	router := s.setupRoutes()
	s.server.Handler = router

	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	return nil
}

// Stop stops the API server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server")
	return s.server.Shutdown(ctx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() *mux.Router {
	router := mux.NewRouter()

	router.Use(s.loggingMiddleware)
	router.Use(s.corsMiddleware)
	router.Use(s.metrics.Middleware)

	router.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	// Listing endpoints
	api.HandleFunc("/listings", s.listingHandler.GetListings).Methods("GET")
	api.HandleFunc("/listings", s.listingHandler.CreateListing).Methods("POST")
	api.HandleFunc("/listings/{asset_id}/buy", s.listingHandler.BuyListing).Methods("POST")

	// Asset endpoints
	api.HandleFunc("/assets/mint", s.assetHandler.MintAsset).Methods("POST")
	api.HandleFunc("/assets/create-and-list", s.assetHandler.CreateAndList).Methods("POST")
	api.HandleFunc("/assets/{address}", s.assetHandler.GetUserAssets).Methods("GET")

	// Admin endpoints
	api.HandleFunc("/admin/issuers", s.adminHandler.GetIssuers).Methods("GET")
	api.HandleFunc("/admin/issuers", s.adminHandler.AddIssuer).Methods("POST")
	api.HandleFunc("/admin/issuers/{address}", s.adminHandler.RemoveIssuer).Methods("DELETE")
	api.HandleFunc("/admin/pause", s.adminHandler.Pause).Methods("POST")
	api.HandleFunc("/admin/resume", s.adminHandler.Resume).Methods("POST")
	api.HandleFunc("/admin/status", s.adminHandler.GetStatus).Methods("GET")

	// Wallet endpoints
	api.HandleFunc("/wallet/{address}/balance", s.balanceHandler.GetBalance).Methods("GET")
	api.HandleFunc("/faucet", s.balanceHandler.RequestFaucet).Methods("POST")

	// Activity endpoints
	api.HandleFunc("/activity/{address}", s.activityHandler.GetActivity).Methods("GET")

	// Health check endpoint
	api.HandleFunc("/health", s.healthCheck).Methods("GET")

	return router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// corsMiddleware handles CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// healthCheck handles the health check endpoint
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("Failed to encode health check response", zap.Error(err))
	}
}
