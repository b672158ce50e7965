package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/workdeskhq/workdesk/internal"
	"github.com/workdeskhq/workdesk/internal/approval"
	approvalpg "github.com/workdeskhq/workdesk/internal/approval/postgres"
	"github.com/workdeskhq/workdesk/internal/audit"
	auditpg "github.com/workdeskhq/workdesk/internal/audit/postgres"
	"github.com/workdeskhq/workdesk/internal/auth"
	"github.com/workdeskhq/workdesk/internal/core/events"
	"github.com/workdeskhq/workdesk/internal/kpi"
	"github.com/workdeskhq/workdesk/internal/member"
	memberpg "github.com/workdeskhq/workdesk/internal/member/postgres"
	"github.com/workdeskhq/workdesk/internal/notification"
	"github.com/workdeskhq/workdesk/internal/permissions"
	permissionspg "github.com/workdeskhq/workdesk/internal/permissions/postgres"
	"github.com/workdeskhq/workdesk/internal/personaltask"
	personaltaskpg "github.com/workdeskhq/workdesk/internal/personaltask/postgres"
	"github.com/workdeskhq/workdesk/internal/realtime"
	"github.com/workdeskhq/workdesk/internal/systemconfig"
	systemconfigpg "github.com/workdeskhq/workdesk/internal/systemconfig/postgres"
	"github.com/workdeskhq/workdesk/internal/task"
	taskpg "github.com/workdeskhq/workdesk/internal/task/postgres"
	"github.com/workdeskhq/workdesk/internal/transport/rest"
	"github.com/workdeskhq/workdesk/internal/weeklyplan"
	weeklyplanpg "github.com/workdeskhq/workdesk/internal/weeklyplan/postgres"
	"github.com/workdeskhq/workdesk/internal/workreport"
	workreportpg "github.com/workdeskhq/workdesk/internal/workreport/postgres"
	"github.com/workdeskhq/workdesk/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API and websocket traffic`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func startHTTPServer() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.LoggerWrapper()

	db, gormDB, err := initDB(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewBus(lg)
	hub := realtime.NewHub(lg)
	go hub.Run(ctx)

	// Repositories
	roleRepo := permissionspg.NewRoleConfigRepository(gormDB)
	memberRepo := memberpg.NewMemberRepository(gormDB)
	taskRepo := taskpg.NewTaskRepository(gormDB)
	personalTaskRepo := personaltaskpg.NewPersonalTaskRepository(gormDB)
	planRepo := weeklyplanpg.NewWeeklyPlanRepository(gormDB)
	reportRepo := workreportpg.NewWorkReportRepository(gormDB)
	approvalRepo := approvalpg.NewApprovalRepository(gormDB)
	auditRepo := auditpg.NewAuditRepository(gormDB)
	announcementRepo := systemconfigpg.NewAnnouncementRepository(gormDB)

	// Services
	permsService := permissions.NewService(roleRepo, bus, lg)
	auditRecorder := audit.NewRecorder(auditRepo, lg)
	memberService := member.NewService(memberRepo, permsService, bus, lg, cfg.Security.BCryptCost)

	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(memberRepo, tokenGen, lg)

	planService := weeklyplan.NewService(planRepo, personalTaskRepo, memberRepo, permsService, bus, auditRecorder, lg)
	personalTaskService := personaltask.NewService(personalTaskRepo, memberRepo, permsService, planService, bus, lg)
	taskService := task.NewService(taskRepo, permsService, bus, auditRecorder, lg)
	reportService := workreport.NewService(reportRepo, permsService, bus, auditRecorder, lg)
	approvalService := approval.NewService(approvalRepo, permsService, bus, auditRecorder, lg)
	kpiService := kpi.NewService(memberService, taskRepo, reportRepo, approvalRepo, lg)
	configService := systemconfig.NewService(announcementRepo, permsService, bus, lg)

	watcher := systemconfig.NewWatcher(configService, hub, cfg.Realtime.WakeInterval, lg)
	go watcher.Run(ctx)

	dispatcher := notification.NewDispatcher(bus, hub, memberRepo, notification.NoopSink{}, lg)
	defer dispatcher.Close()

	// HTTP wiring
	authorizer := auth.NewAuthorizer(permsService, lg)
	handlers := rest.Handlers{
		Auth:         auth.NewHandler(authService),
		Member:       member.NewHandler(memberService),
		Task:         task.NewHandler(taskService),
		PersonalTask: personaltask.NewHandler(personalTaskService),
		WeeklyPlan:   weeklyplan.NewHandler(planService),
		WorkReport:   workreport.NewHandler(reportService),
		Approval:     approval.NewHandler(approvalService),
		KPI:          kpi.NewHandler(kpiService),
		Permissions:  permissions.NewHandler(permsService),
		Audit:        audit.NewHandler(auditRecorder),
		SystemConfig: systemconfig.NewHandler(configService),
		Realtime:     realtime.NewHandler(hub),
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, handlers, authorizer, lg)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		cancel()
		if err := db.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

// initDB opens one pgx connection pool and hands the same pool to GORM,
// so health checks and repositories share connections.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, *gorm.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: dbConn.DB}), &gorm.Config{})
	if err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}

	return dbConn, gormDB, nil
}
