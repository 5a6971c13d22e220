package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httprouter "github.com/civicvoice/civicvoice-server/internal/api/http/router"
	"github.com/civicvoice/civicvoice-server/internal/api/ws"
	"github.com/civicvoice/civicvoice-server/internal/codestore"
	"github.com/civicvoice/civicvoice-server/internal/config"
	"github.com/civicvoice/civicvoice-server/internal/email"
	"github.com/civicvoice/civicvoice-server/internal/logger"
	"github.com/civicvoice/civicvoice-server/internal/model"
	"github.com/civicvoice/civicvoice-server/internal/repository/postgres"
	"github.com/civicvoice/civicvoice-server/internal/server"
	"github.com/civicvoice/civicvoice-server/internal/service"
	"github.com/civicvoice/civicvoice-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	surveyRepo := postgres.NewSurveyRepository(db)
	responseRepo := postgres.NewResponseRepository(db)

	codes, err := newCodeStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize code store", "error", err)
	}

	sender := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, logger)
	verificationService := service.NewVerification(codes, sender, logger, cfg.Verification.CodeLength)
	tokenManager := token.NewJWT(cfg.Admin.TokenSecret)

	conversations := ws.NewHandler(codes, surveyRepo, responseRepo, logger,
		cfg.Verification.SessionTTL, cfg.Verification.MaxAttempts)

	r := httprouter.New(verificationService, surveyRepo, responseRepo, tokenManager,
		cfg.Admin.Secret, conversations, logger)
	httpServer := server.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer

	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

// newCodeStore picks the redis-backed store when a redis URL is configured,
// the in-memory store with a background sweeper otherwise.
func newCodeStore(ctx context.Context, cfg *config.Config, logger *logger.Logger) (model.CodeStore, error) {
	if cfg.Redis.URL != "" {
		return codestore.NewRedis(ctx, cfg.Redis.URL, cfg.Verification.CodeTTL, logger)
	}

	memory := codestore.NewMemory(cfg.Verification.CodeTTL, logger)
	go memory.RunSweeper(ctx, cfg.Verification.SweepInterval)
	return memory, nil
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
