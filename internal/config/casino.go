package config

import "time"

// CasinoConfig holds all configuration for the casino monolith
type CasinoConfig struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig

	// CooldownStore selects the cooldown backend: "memory" or "redis"
	CooldownStore string

	Game   GameSettings
	Ledger LedgerSettings
	Auth   AuthSettings
}

// GameSettings bounds table creation and betting
type GameSettings struct {
	MinBet     int64
	MaxBet     int64
	MaxPlayers int

	// ActionCooldown / PostGameCooldown of zero keep the scheduler defaults
	ActionCooldown   time.Duration
	PostGameCooldown time.Duration
}

// LedgerSettings bounds balances
type LedgerSettings struct {
	MaxBalance int64

	// InitialBalance is credited to every new account
	InitialBalance int64
}

// AuthSettings configures session token issuance
type AuthSettings struct {
	JWTSecret     string
	TokenTTL      time.Duration
	RefreshTTL    time.Duration
	SnowflakeNode int64
}

// LoadCasinoConfig loads configuration from the environment
func LoadCasinoConfig() *CasinoConfig {
	return &CasinoConfig{
		Server: ServerConfig{
			Port: getEnv("CASINO_SERVER_PORT", "8080"),
			Name: "casino-service",
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "casino_user"),
			Password: getEnv("DB_PASSWORD", "casino_pass"),
			Name:     getEnv("DB_NAME", "casino_db"),
		},
		Redis: RedisConfig{
			Host: getEnv("REDIS_HOST", "localhost"),
			Port: getEnv("REDIS_PORT", "6379"),
		},
		CooldownStore: getEnv("COOLDOWN_STORE", "memory"),
		Game: GameSettings{
			MinBet:           getEnvInt64("GAME_MIN_BET", 10),
			MaxBet:           getEnvInt64("GAME_MAX_BET", 10000),
			MaxPlayers:       getEnvInt("GAME_MAX_PLAYERS", 9),
			ActionCooldown:   time.Duration(getEnvInt("GAME_ACTION_COOLDOWN_SECONDS", 0)) * time.Second,
			PostGameCooldown: time.Duration(getEnvInt("GAME_POST_GAME_COOLDOWN_SECONDS", 0)) * time.Second,
		},
		Ledger: LedgerSettings{
			// 1M in smallest units, mirrors the production balance ceiling
			MaxBalance:     getEnvInt64("LEDGER_MAX_BALANCE", 100000000),
			InitialBalance: getEnvInt64("LEDGER_INITIAL_BALANCE", 1000),
		},
		Auth: AuthSettings{
			JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-me"),
			TokenTTL:      time.Duration(getEnvInt("TOKEN_TTL_MINUTES", 60)) * time.Minute,
			RefreshTTL:    time.Duration(getEnvInt("REFRESH_TTL_HOURS", 168)) * time.Hour,
			SnowflakeNode: getEnvInt64("SNOWFLAKE_NODE", 1),
		},
	}
}
