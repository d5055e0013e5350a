package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof" // Register pprof handlers
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // Postgres driver for raw database/sql tooling
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Hermela440/game/internal/config"
	"github.com/Hermela440/game/internal/modules/cooldown"
	gatewayHttp "github.com/Hermela440/game/internal/modules/gateway/adapter/http"
	gatewayUseCase "github.com/Hermela440/game/internal/modules/gateway/usecase"
	"github.com/Hermela440/game/internal/modules/gateway/ws"
	pokerdomain "github.com/Hermela440/game/internal/modules/poker/domain"
	pokerdb "github.com/Hermela440/game/internal/modules/poker/repository/db"
	pokerUseCase "github.com/Hermela440/game/internal/modules/poker/usecase"
	rpsUseCase "github.com/Hermela440/game/internal/modules/rps/usecase"
	userdomain "github.com/Hermela440/game/internal/modules/user/domain"
	userdb "github.com/Hermela440/game/internal/modules/user/repository/db"
	userUseCase "github.com/Hermela440/game/internal/modules/user/usecase"
	"github.com/Hermela440/game/internal/modules/wallet"
	walletdomain "github.com/Hermela440/game/internal/modules/wallet/domain"
	walletdb "github.com/Hermela440/game/internal/modules/wallet/repository/db"
	"github.com/Hermela440/game/pkg/logger"
	"github.com/Hermela440/game/pkg/service"
)

func main() {
	pprofPort := flag.String("pprof-port", "", "Port to run pprof server on (e.g., 6060)")
	background := flag.Bool("d", false, "Run in background mode (disable console logging)")
	flag.Parse()

	logger.InitWithFile("logs/casino/monolith.log", "info", "json", !*background)

	if *pprofPort != "" {
		go func() {
			addr := "localhost:" + *pprofPort
			logger.InfoGlobal().Str("addr", addr).Msg("Starting pprof server")
			if err := http.ListenAndServe(addr, nil); err != nil {
				logger.ErrorGlobal().Err(err).Msg("Failed to start pprof server")
			}
		}()
	}

	fmt.Println("Starting casino monolith... logs are written to logs/casino/monolith.log (rotating)")
	logger.InfoGlobal().Msg("Starting casino monolith")

	cfg := config.LoadCasinoConfig()

	if err := walletdomain.InitSnowflake(cfg.Auth.SnowflakeNode); err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to initialize id generator")
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:         logger.NewGormLogger(),
		TranslateError: true,
	})
	if err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to get database instance")
	}
	// Postgres default max_connections is usually 100; stay well below it
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to ping database")
	}
	logger.InfoGlobal().Msg("Database connected")

	if err := db.AutoMigrate(&userdomain.User{}, &walletdomain.Entry{}, &pokerdomain.GameRecord{}); err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to migrate schema")
	}

	// Cooldown backend: Redis shares cooldowns across instances, memory
	// is enough for a single process
	var cooldownStore cooldown.Store
	if cfg.CooldownStore == "redis" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.FatalGlobal().Err(err).Msg("Failed to ping redis")
		}
		cooldownStore = cooldown.NewRedisStore(rdb)
		logger.InfoGlobal().Msg("Redis cooldown store connected")
	} else {
		cooldownStore = cooldown.NewMemoryStore()
	}

	var cooldownOpts []cooldown.Option
	if cfg.Game.ActionCooldown > 0 {
		for _, action := range []string{"bet", "raise", "call", "check", "fold"} {
			cooldownOpts = append(cooldownOpts, cooldown.WithActionCooldown(action, cfg.Game.ActionCooldown))
		}
	}
	if cfg.Game.PostGameCooldown > 0 {
		cooldownOpts = append(cooldownOpts, cooldown.WithPostGameCooldown(cfg.Game.PostGameCooldown))
	}
	scheduler := cooldown.NewScheduler(cooldownStore, cooldownOpts...)

	ledgerRepo := walletdb.NewLedgerRepository(db, cfg.Ledger.MaxBalance)
	ledger := wallet.NewLedger(ledgerRepo)
	logger.InfoGlobal().Msg("Wallet module initialized")

	manager := ws.NewManager()
	go manager.Run()
	gatewayUC := gatewayUseCase.NewGatewayUseCase(manager)
	logger.InfoGlobal().Msg("Gateway module initialized")

	var gateway service.GatewayService = gatewayUC

	pokerUC := pokerUseCase.NewPokerUseCase(
		pokerdomain.GameConfig{
			MinBet:     cfg.Game.MinBet,
			MaxBet:     cfg.Game.MaxBet,
			MaxPlayers: cfg.Game.MaxPlayers,
		},
		ledger,
		scheduler,
		pokerdb.NewGameRepository(db),
		gateway,
	)
	logger.InfoGlobal().Msg("Poker module initialized")

	rpsUC := rpsUseCase.NewRPSUseCase(ledger, scheduler, gateway)
	logger.InfoGlobal().Msg("RPS module initialized")

	userUC := userUseCase.NewUserUseCase(
		userdb.NewUserRepository(db),
		cfg.Auth.JWTSecret,
		cfg.Auth.TokenTTL,
		cfg.Auth.RefreshTTL,
		cfg.Ledger.InitialBalance,
	)
	logger.InfoGlobal().Msg("User module initialized")

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(logger.GinMiddleware(), gin.Recovery())

	handler := gatewayHttp.NewHandler(userUC, pokerUC, rpsUC, ledger, gatewayUC)
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.InfoGlobal().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalGlobal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.InfoGlobal().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	manager.Shutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.ErrorGlobal().Err(err).Msg("HTTP server shutdown failed")
	}
	logger.InfoGlobal().Msg("Stopped")
}
