package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabasePath string
	LogLevel     string

	// JWTSecret signs session tokens. Rotating it invalidates every
	// outstanding token at once; there is no finer-grained revocation.
	JWTSecret string

	// RedisAddr enables the query-result cache when non-empty.
	RedisAddr string

	// Pinata credentials for IPFS pinning.
	PinataJWT     string
	PinataGateway string

	// Chain mirroring. Empty RPCURL disables it.
	RPCURL          string
	ContractAddress string
	AdminPrivateKey string

	// Admin bootstrap: the wallet that gets the Admin role on first run.
	AdminWalletAddress string
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is read first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:      port,
		DatabasePath:    getEnv("DATABASE_PATH", "./web3hire.db"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		PinataJWT:       getEnv("PINATA_JWT", ""),
		PinataGateway:   getEnv("PINATA_GATEWAY", "https://gateway.pinata.cloud/ipfs"),
		RPCURL:          getEnv("RPC_URL", ""),
		ContractAddress: getEnv("CONTRACT_ADDRESS", ""),
		AdminPrivateKey: getEnv("ADMIN_PRIVATE_KEY", ""),

		AdminWalletAddress: getEnv("ADMIN_WALLET_ADDRESS", ""),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
