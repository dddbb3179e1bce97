package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"physioplan/server/internal/api"
	"physioplan/server/internal/config"
	"physioplan/server/internal/logger"
	"physioplan/server/internal/repository"
	"physioplan/server/internal/repository/memory"
	mongorepo "physioplan/server/internal/repository/mongo"
	"physioplan/server/internal/service"
	"physioplan/server/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title PhysioPlan API
// @version 1.0
// @description API for managing physiotherapy patients, exercise libraries and scheduled plans.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	// --- Logging ---
	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("FATAL: Could not initialize logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck
	zlog.Info("starting physioplan server")

	// --- Record Store ---
	var (
		userRepo      repository.UserRepository
		patientRepo   repository.PatientRepository
		exerciseRepo  repository.ExerciseRepository
		planRepo      repository.PlanRepository
		scheduledRepo repository.ScheduledExerciseRepository
		progressRepo  repository.ProgressRepository
	)

	switch cfg.Database.Driver {
	case "memory":
		zlog.Warn("using in-memory record store, data will not survive a restart")
		store := memory.NewStore()
		userRepo = store.Users()
		patientRepo = store.Patients()
		exerciseRepo = store.Exercises()
		planRepo = store.Plans()
		scheduledRepo = store.ScheduledExercises()
		progressRepo = store.Progress()

	case "mongo":
		dbClient, err := mongorepo.ConnectDB(cfg.Database.URI)
		if err != nil {
			zlog.Fatal("could not connect to MongoDB", zap.Error(err))
		}
		defer func() {
			if err := mongorepo.DisconnectDB(dbClient); err != nil {
				zlog.Error("failed to disconnect MongoDB", zap.Error(err))
			}
		}()
		appDB := dbClient.Database(cfg.Database.Name)
		zlog.Info("database connection established", zap.String("database", cfg.Database.Name))

		// Index creation runs in the background; the unique indexes back the
		// scheduling invariants, so failures must at least be visible.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
			defer cancel()
			if err := mongorepo.EnsureUserIndexes(ctx, appDB.Collection("users")); err != nil {
				zlog.Warn("ensuring user indexes failed", zap.Error(err))
			}
			if err := mongorepo.EnsurePatientIndexes(ctx, appDB.Collection("patients")); err != nil {
				zlog.Warn("ensuring patient indexes failed", zap.Error(err))
			}
			if err := mongorepo.EnsureExerciseIndexes(ctx, appDB.Collection("exercises")); err != nil {
				zlog.Warn("ensuring exercise indexes failed", zap.Error(err))
			}
			if err := mongorepo.EnsurePlanIndexes(ctx, appDB.Collection("exercise_plans")); err != nil {
				zlog.Warn("ensuring plan indexes failed", zap.Error(err))
			}
			if err := mongorepo.EnsureScheduledExerciseIndexes(ctx, appDB.Collection("scheduled_exercises")); err != nil {
				zlog.Warn("ensuring scheduled exercise indexes failed", zap.Error(err))
			}
			if err := mongorepo.EnsureProgressIndexes(ctx, appDB.Collection("exercise_progress")); err != nil {
				zlog.Warn("ensuring progress indexes failed", zap.Error(err))
			}
		}()

		userRepo = mongorepo.NewMongoUserRepository(appDB)
		patientRepo = mongorepo.NewMongoPatientRepository(appDB)
		exerciseRepo = mongorepo.NewMongoExerciseRepository(appDB)
		planRepo = mongorepo.NewMongoPlanRepository(appDB)
		scheduledRepo = mongorepo.NewMongoScheduledExerciseRepository(appDB)
		progressRepo = mongorepo.NewMongoProgressRepository(appDB)

	default:
		zlog.Fatal("unknown database driver", zap.String("driver", cfg.Database.Driver))
	}

	// --- File Storage ---
	fileStorage, err := storage.NewS3Storage(cfg.S3, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize S3 storage", zap.Error(err))
	}

	// --- Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	patientService := service.NewPatientService(patientRepo, userRepo)
	exerciseService := service.NewExerciseService(exerciseRepo, scheduledRepo, fileStorage)
	scheduleService := service.NewScheduleService(patientRepo, exerciseRepo, planRepo, scheduledRepo, zlog)
	progressService := service.NewProgressService(progressRepo, patientRepo, exerciseRepo, planRepo, scheduledRepo)

	// --- HTTP ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(api.RequestLogger(zlog), gin.Recovery())

	api.SetupRoutes(router, cfg.JWT.Secret, authService, patientService, exerciseService, scheduleService, progressService)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		zlog.Info("server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("listen and serve error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		zlog.Fatal("server forced to shutdown", zap.Error(err))
	}
	zlog.Info("server exiting")
}
