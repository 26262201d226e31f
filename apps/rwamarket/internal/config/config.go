package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	RpcURL                    string
	SignerURL                 string
	IPFSGateway               string
	FaucetURL                 string
	DbURL                     string
	KafkaBroker               string
	KafkaTopic                string
	APIPort                   int
	LogFile                   string
	LogLevel                  string
	ReconstructionConcurrency int
	Contracts                 Contracts
}

// Contracts identifies the deployed marketplace packages and shared objects.
// It is passed explicitly to the gateway so that several deployments can be
// addressed side by side.
type Contracts struct {
	AdminPackage          string
	IssuerRegistryPackage string
	MarketplacePackage    string
	RWAAssetPackage       string

	IssuerRegistryObject string
	MarketplaceObject    string
	IssuerCap            string
	Clock                string

	PaymentCoinType string
	GasBudget       uint64

	ListingsField        string
	UniqueEscrowField    string
	DivisibleEscrowField string
}

// DefaultContracts returns the OneChain testnet deployment.
func DefaultContracts() Contracts {
	return Contracts{
		AdminPackage:          "0xca67e096a90cd0efbeb7255346be54ab7707b149882475c447daae6caef1d5af",
		IssuerRegistryPackage: "0xe460db5069b62b397782c4f638911d1ae852d5c154ef3968be52e53d3179c2af",
		MarketplacePackage:    "0x346a89f2b25089791f7d909ac5fdc52e80ad92ff26f929ba2c541269b5e21312",
		RWAAssetPackage:       "0xa535ba1ca80032203a344533fbffe4d9a9f2359322ef205d476ca8d0c710e8ca",

		IssuerRegistryObject: "0x6c858122a388ebfaf088b1ba78293b74d1d634b1ea40d6e97c47bed32d96f622",
		MarketplaceObject:    "0x3333e19caa3cb65c719c5abb69d6b836b88c57729e5decdcad0e51feaaef8b16",
		IssuerCap:            "0x233290230d46ecc0985e073a1c17604bd2a0dcd33010a0cbc5cde49abd6da4b6",
		Clock:                "0x6",

		PaymentCoinType: "0x2::oct::OCT",
		GasBudget:       100_000_000,

		ListingsField:        "listings",
		UniqueEscrowField:    "nft_escrow",
		DivisibleEscrowField: "ft_escrow",
	}
}

// NewConfig loads configuration from environment variables
func NewConfig() *Config {
	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	return &Config{
		RpcURL:                    getEnvOrFatal("RPC_URL"),
		SignerURL:                 getEnvOr("SIGNER_URL", ""),
		IPFSGateway:               getEnvOr("IPFS_GATEWAY", "https://gateway.pinata.cloud/ipfs/"),
		FaucetURL:                 getEnvOr("FAUCET_URL", "https://faucet-testnet.onelabs.cc/v1/gas"),
		DbURL:                     getEnvOr("DB_URL", ""),
		KafkaBroker:               getEnvOr("KAFKA_BROKER", ""),
		KafkaTopic:                getEnvOr("KAFKA_TOPIC", "marketplace-activity"),
		APIPort:                   getEnvInt("API_PORT", 8080),
		LogFile:                   getEnvOr("LOG_FILE", ""),
		LogLevel:                  getEnvOr("LOG_LEVEL", "info"),
		ReconstructionConcurrency: getEnvInt("RECONSTRUCTION_CONCURRENCY", 8),
		Contracts:                 contractsFromEnv(DefaultContracts()),
	}
}

func contractsFromEnv(c Contracts) Contracts {
	c.AdminPackage = getEnvOr("RWA_ADMIN_PACKAGE", c.AdminPackage)
	c.IssuerRegistryPackage = getEnvOr("RWA_ISSUER_REGISTRY_PACKAGE", c.IssuerRegistryPackage)
	c.MarketplacePackage = getEnvOr("MARKETPLACE_PACKAGE", c.MarketplacePackage)
	c.RWAAssetPackage = getEnvOr("RWA_ASSET_PACKAGE", c.RWAAssetPackage)
	c.IssuerRegistryObject = getEnvOr("RWA_ISSUER_REGISTRY_OBJECT", c.IssuerRegistryObject)
	c.MarketplaceObject = getEnvOr("MARKETPLACE_OBJECT", c.MarketplaceObject)
	c.IssuerCap = getEnvOr("RWA_ISSUER_CAP", c.IssuerCap)
	c.PaymentCoinType = getEnvOr("MARKETPLACE_COIN_TYPE", c.PaymentCoinType)
	c.GasBudget = getEnvUint64("MARKETPLACE_GAS_BUDGET", c.GasBudget)
	return c
}

func getEnvOrFatal(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	log.Fatalf("Warning: environment variable %s not set", key)

	return ""
}

func getEnvOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseUint(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
