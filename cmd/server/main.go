package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/studyplan/srs-backend/internal/handler"
	"github.com/studyplan/srs-backend/internal/models"
	"github.com/studyplan/srs-backend/internal/repository"
	"github.com/studyplan/srs-backend/internal/scheduler"
	"github.com/studyplan/srs-backend/internal/service"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logNotifier is the delivery stand-in used until the push gateway is wired
// up: it logs the dispatch instead of sending anything.
type logNotifier struct{}

func (logNotifier) NotifyDueReview(_ context.Context, reminder *models.Reminder) error {
	zap.S().Info("due review reminder",
		zap.Int64("user_id", reminder.UserID),
		zap.Int64("topic_id", reminder.TopicID),
		zap.String("topic_title", reminder.TopicTitle))
	return nil
}

func main() {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.TimeKey = "timestamp"

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	zap.S().Info("logger initialized")

	if err := godotenv.Load(); err != nil {
		zap.S().Debug("load .env file", zap.Error(err))
	}

	postgresHost := os.Getenv("POSTGRES_HOST")
	postgresPort := os.Getenv("POSTGRES_PORT")
	postgresUser := os.Getenv("POSTGRES_USER")
	postgresPassword := os.Getenv("POSTGRES_PASSWORD")
	postgresDB := os.Getenv("POSTGRES_DB")
	httpAddr := os.Getenv("HTTP_ADDR")

	if postgresHost == "" {
		zap.S().Fatal("missing required environment variables")
	}
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		postgresHost, postgresPort, postgresUser, postgresPassword, postgresDB)

	repo, err := repository.NewDB(dsn, 10, 20)
	if err != nil {
		zap.S().Error("connect to PostgreSQL", zap.Error(err), zap.String("host", postgresHost))
		os.Exit(1)
	}
	defer repo.Close()

	if err = repo.Up("migrations"); err != nil {
		zap.S().Error("run migrations", zap.Error(err))
		os.Exit(1)
	}

	var opts []service.Option
	if hours := envInt("CRAM_WINDOW_HOURS", 0); hours > 0 {
		opts = append(opts, service.WithCramWindow(hours))
	}
	svc := service.NewService(repo, opts...)

	sweep := scheduler.NewSweep(repo, logNotifier{},
		envInt("DISPATCH_START_HOUR", scheduler.DefaultDispatchStartHour),
		envInt("DISPATCH_END_HOUR", scheduler.DefaultDispatchEndHour))
	if err := sweep.Start(envInt("SWEEP_INTERVAL_MINUTES", 15)); err != nil {
		zap.S().Error("start reminder sweep", zap.Error(err))
		os.Exit(1)
	}
	defer sweep.Stop()

	mux := http.NewServeMux()
	handler.NewHTTPHandler(svc).Register(mux)

	srv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.S().Info("http server listening", zap.String("addr", httpAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatal("http server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.S().Error("shutdown http server", zap.Error(err))
	}
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		zap.S().Warn("malformed integer environment variable, using fallback",
			zap.String("key", key), zap.String("value", value))
		return fallback
	}

	return n
}
