// File: app/app.go
package app

import (
	"context"
	"go-blog-api/config"
	"go-blog-api/db"
	"go-blog-api/logger"
	"go-blog-api/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	redisClient, err := db.ConnectRedis()
	if err != nil {
		logger.Log.Fatalf("Error connecting to redis: %v", err)
	}
	defer redisClient.Close()

	mailer, err := service.NewSMTPMailer(&config.AppConfig)
	if err != nil {
		logger.Log.Fatalf("Error setting up mailer: %v", err)
	}

	r := buildRouter(database, redisClient, mailer)

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}

// AuthConfigFromApp builds the token issuer settings from the loaded
// configuration. The services only ever see this struct; nothing in the
// request path reads viper.
func AuthConfigFromApp() service.AuthConfig {
	jwtCfg := config.AppConfig.JWT
	return service.AuthConfig{
		AccessSecret:  jwtCfg.SecretKey,
		AccessTTL:     jwtCfg.AccessTokenTTL,
		RefreshSecret: jwtCfg.RefreshSecretKey,
		RefreshTTL:    jwtCfg.RefreshTokenTTL,
		ClientURL:     config.AppConfig.ClientURL,
	}
}
