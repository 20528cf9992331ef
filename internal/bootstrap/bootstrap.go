package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/examprogress/internal/app/controllers"
	appMigrations "github.com/yigit/examprogress/internal/app/migrations"
	appRepos "github.com/yigit/examprogress/internal/app/repositories"
	appRoutes "github.com/yigit/examprogress/internal/app/routes"
	appServices "github.com/yigit/examprogress/internal/app/services"
	"github.com/yigit/examprogress/internal/app/state"
	"github.com/yigit/examprogress/internal/config"
	"github.com/yigit/examprogress/internal/db"
	appMiddleware "github.com/yigit/examprogress/internal/middleware"
	pkgAuth "github.com/yigit/examprogress/internal/pkg/auth"
	"github.com/yigit/examprogress/internal/pkg/filestorage"
	"github.com/yigit/examprogress/internal/pkg/logger"
	"github.com/yigit/examprogress/internal/seed"
)

// DefaultConfigPath is where the service looks for its YAML configuration.
var DefaultConfigPath = filepath.Join("configs", "config.yaml")

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos       *appRepos.Repositories
	State       *state.Store
	FileStorage *filestorage.LocalStorage
	JWTService  *pkgAuth.JWTService
	Logger      zerolog.Logger

	AuthService        *appServices.AuthService
	StudentService     appServices.StudentService
	DosenService       appServices.DosenService
	BackupService      appServices.BackupService
	ExportService      appServices.ExportService
	MaintenanceService appServices.MaintenanceService
	SyncService        appServices.SyncService
	SettingsService    appServices.SettingsService
	AutoBackup         *appServices.AutoBackupScheduler

	AuthController     *appControllers.AuthController
	StudentController  *appControllers.StudentController
	DosenController    *appControllers.DosenController
	DataController     *appControllers.DataController
	SettingsController *appControllers.SettingsController
	AuthMiddleware     *appMiddleware.AuthMiddleware
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logger.Configure(logger.ConfigFromStrings(cfg.Logging.Level, cfg.Logging.Format))

	lgr := logger.Component("app")
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and seeds
// the dosen registry.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool
	lgr.Info().Msg("Database connection successfully established.")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	lgr.Info().Msg("Running database migrations...")
	if err := appMigrations.NewMigrator(dbPool).Migrate(ctx); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		dbPool.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultDosen(ctx, appRepos.NewDosenRepository(dbPool), cfg.Seed.Dosen, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default dosen, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes repositories, state, services and controllers.
// The auto-backup scheduler is built but not started.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	var err error
	deps.State, err = state.Open(cfg.Server.StatePath)
	if err != nil {
		lgr.Error().Err(err).Str("path", cfg.Server.StatePath).Msg("Failed to open application state")
		return nil, fmt.Errorf("failed to open application state: %w", err)
	}

	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:   cfg.JWT.Secret,
		TokenIssuer: cfg.JWT.Issuer,
	})

	students := deps.Repos.StudentRepository

	deps.AuthService = appServices.NewAuthService(deps.State, cfg.Admin.Password, deps.JWTService, logger.Component("auth"))
	deps.StudentService = appServices.NewStudentService(students, deps.State, logger.Component("students"))
	deps.DosenService = appServices.NewDosenService(deps.Repos.DosenRepository, logger.Component("dosen"))
	deps.BackupService = appServices.NewBackupService(students, cfg.Backup.BatchSize, logger.Component("backup"))
	deps.ExportService = appServices.NewExportService(students, logger.Component("export"))
	deps.AutoBackup = appServices.NewAutoBackupScheduler(deps.BackupService, deps.FileStorage, cfg.Backup.AutoRetention, logger.Component("autobackup"))
	deps.MaintenanceService = appServices.NewMaintenanceService(students, deps.AutoBackup, cfg.Backup.OptimizeRetention, logger.Component("maintenance"))
	deps.SyncService = appServices.NewSyncService(students, deps.BackupService, deps.State, &http.Client{}, appServices.SyncConfig{
		HealthTimeout:  cfg.Sync.HealthTimeout,
		RequestTimeout: cfg.Sync.RequestTimeout,
		HistoryLimit:   cfg.Sync.HistoryLimit,
	}, logger.Component("sync"))
	deps.SettingsService = appServices.NewSettingsService(deps.State, deps.AutoBackup, logger.Component("settings"))

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.AuthService)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService, lgr)
	deps.StudentController = appControllers.NewStudentController(deps.StudentService)
	deps.DosenController = appControllers.NewDosenController(deps.DosenService, deps.StudentService)
	deps.DataController = appControllers.NewDataController(
		deps.BackupService,
		deps.AutoBackup,
		deps.ExportService,
		deps.MaintenanceService,
		deps.SyncService,
		time.Duration(cfg.Backup.MaxAgeDays)*24*time.Hour,
	)
	deps.SettingsController = appControllers.NewSettingsController(deps.SettingsService)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	appMiddleware.RegisterJSONTagNames()

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger())

	appRoutes.SetupSwagger(router)

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.StudentController,
		deps.DosenController,
		deps.DataController,
		deps.SettingsController,
		deps.AuthMiddleware,
	)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
