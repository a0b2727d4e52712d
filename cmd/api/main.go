package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-registrar-portal/internal/config"
	"github.com/go-registrar-portal/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-registrar-portal/internal/infrastructure/jwt"
	s3infra "github.com/go-registrar-portal/internal/infrastructure/s3"
	"github.com/go-registrar-portal/internal/infrastructure/smtp"
	"github.com/go-registrar-portal/internal/retention"
	transporthttp "github.com/go-registrar-portal/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider is optional. When keys are missing the staff
	// routes stay locked until keys are provisioned.
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// S3 store for uploaded photos and signatures.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	otpRepo := dynamo.NewOtpRepo(dynamoClient, cfg.DynamoTables.Otps)
	verifyRepo := dynamo.NewVerifySessionRepo(dynamoClient, cfg.DynamoTables.VerificationSessions)
	auditLogRepo := dynamo.NewAuditLogRepo(dynamoClient, cfg.DynamoTables.AuditLogs)
	emailLogRepo := dynamo.NewEmailLogRepo(dynamoClient, cfg.DynamoTables.EmailLogs)

	deps := &transporthttp.Deps{
		OtpRepo:           otpRepo,
		RequestRepo:       dynamo.NewRequestRepo(dynamoClient, cfg.DynamoTables.DocumentRequests),
		RequestLogRepo:    dynamo.NewRequestLogRepo(dynamoClient, cfg.DynamoTables.RequestLogs),
		AuditLogRepo:      auditLogRepo,
		EmailLogRepo:      emailLogRepo,
		VerifySessionRepo: verifyRepo,
		DocTypeRepo:       dynamo.NewDocTypeRepo(dynamoClient, cfg.DynamoTables.DocumentTypes),
		UserRepo:          dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		SessionRepo:       dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		S3Store:           s3Store,
		Mailer:            mailer,
		JWTProvider:       jwtProvider,
	}

	pruner := retention.New(retention.Deps{
		Otps:         otpRepo,
		Gates:        verifyRepo,
		AuditLogs:    auditLogRepo,
		EmailLogs:    emailLogRepo,
		Schedule:     cfg.RetentionSchedule,
		OtpRetention: time.Duration(cfg.OtpRetentionDays) * 24 * time.Hour,
		LogRetention: time.Duration(cfg.LogRetentionDays) * 24 * time.Hour,
	})
	if err := pruner.Start(); err != nil {
		log.Printf("WARN: retention pruner not started: %v", err)
	}
	defer pruner.Stop()

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
