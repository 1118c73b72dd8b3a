package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adgate-server/internal/config"
	"adgate-server/internal/handler"
	"adgate-server/internal/middleware"
	"adgate-server/internal/remoteconfig"
	"adgate-server/internal/repository"
	"adgate-server/internal/service"

	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/go-kivik/kivik/v4"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logrus.SetLevel(level)
	}

	couchURL := fmt.Sprintf("http://%s:%s@%s:%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
	)

	client, err := kivik.New("couch", couchURL)
	if err != nil {
		logrus.Fatalf("Failed to connect to CouchDB: %v", err)
	}

	exists, err := client.DBExists(context.Background(), cfg.Database.Name)
	if err != nil {
		logrus.Fatalf("Failed to check database existence: %v", err)
	}

	if !exists {
		if err := client.CreateDB(context.Background(), cfg.Database.Name); err != nil {
			logrus.Fatalf("Failed to create database: %v", err)
		}
		logrus.Infof("Created database: %s", cfg.Database.Name)
	}

	deviceStore := repository.NewDeviceStore(client, cfg.Database.Name)
	linkRepo := repository.NewLinkRepository(fmt.Sprintf("%s/%s", couchURL, cfg.Database.Name))

	durationSource := remoteconfig.New(cfg.RemoteConfig.URL, cfg.RemoteConfig.CacheTTL)

	tokenService := service.NewTokenService(cfg.Token.Secret, cfg.Token.TTL)
	verificationService := service.NewVerificationService(deviceStore, durationSource, cfg.Token.Secret, cfg.Protocol)
	statusService := service.NewStatusService(deviceStore, cfg.Protocol.ExpiredNotice)
	cleanupService := service.NewCleanupService(deviceStore)
	linkService := service.NewLinkService(tokenService, linkRepo, cfg.Link.PublicBaseURL, cfg.Link.VerifyPageURL)

	tokenHandler := handler.NewTokenHandler(tokenService)
	verificationHandler := handler.NewVerificationHandler(verificationService)
	statusHandler := handler.NewStatusHandler(statusService)
	adminHandler := handler.NewAdminHandler(cleanupService, linkService)
	redirectHandler := handler.NewRedirectHandler(linkService)

	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/request-token", tokenHandler.Request).Methods("POST", "OPTIONS")
	api.HandleFunc("/confirm-verification", verificationHandler.Confirm).Methods("POST", "OPTIONS")
	api.HandleFunc("/verify-pin", verificationHandler.Confirm).Methods("POST", "OPTIONS")
	api.HandleFunc("/check-status", statusHandler.Check).Methods("POST", "OPTIONS")

	internal := api.PathPrefix("/internal").Subrouter()
	internal.Use(middleware.AdminKeyMiddleware(cfg.Cleanup.AdminKeyHash))
	internal.HandleFunc("/cleanup", adminHandler.RunCleanup).Methods("POST", "OPTIONS")
	internal.HandleFunc("/update-daily-link", adminHandler.UpdateDailyLink).Methods("POST", "OPTIONS")

	r.HandleFunc("/redirect", redirectHandler.Redirect).Methods("GET")
	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.HandleFunc("/", rootHandler).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stopCleanup := make(chan struct{})
	go runCleanupLoop(cleanupService, cfg.Cleanup.Interval, stopCleanup)

	go func() {
		logrus.Infof("Starting adgate server on %s (env: %s)", addr, cfg.Server.Env)
		logrus.Infof("Connected to CouchDB at %s:%s", cfg.Database.Host, cfg.Database.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	close(stopCleanup)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server stopped gracefully")
}

// runCleanupLoop sweeps expired records on an interval. The HTTP trigger can
// still run a sweep on demand; both paths share the same service.
func runCleanupLoop(cleanup *service.CleanupService, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
			if _, err := cleanup.Run(ctx, time.Now().UnixMilli()); err != nil {
				logrus.WithError(err).Error("Scheduled cleanup failed")
			}
			cancel()
		case <-stop:
			return
		}
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"adgate-server"}`))
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"Adgate Verification API","version":"1.0.0","endpoints":{"/api/v1/request-token":"POST","/api/v1/confirm-verification":"POST","/api/v1/check-status":"POST"}}`))
}
