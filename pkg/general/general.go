package general

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

type General struct {
	RpcEndpoint string
	LogLevel    string
	LogFormat   string
	RoutesFile  string

	Underlying common.Address
	Governance common.Address
	FeeSink    common.Address
	Forwarder  common.Address
	RewardPool common.Address

	//database credentials
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// NewGeneral loads envFile, when it exists, and reads the settings from the
// environment. Variables already set in the environment win over the file.
func NewGeneral(envFile string) (*General, error) {
	if envFile != "" {
		err := godotenv.Load(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	var g General
	var err error

	g.RpcEndpoint = os.Getenv("RPC_ENDPOINT")
	g.LogLevel = getenv("LOG_LEVEL", "info")
	g.LogFormat = getenv("LOG_FORMAT", "json")
	g.RoutesFile = os.Getenv("ROUTES_FILE")

	if g.Underlying, err = address("UNDERLYING", true); err != nil {
		return nil, err
	}
	if g.Governance, err = address("GOVERNANCE", true); err != nil {
		return nil, err
	}
	if g.FeeSink, err = address("FEE_SINK", false); err != nil {
		return nil, err
	}
	if g.FeeSink == (common.Address{}) {
		g.FeeSink = g.Governance
	}
	if g.Forwarder, err = address("FORWARDER", false); err != nil {
		return nil, err
	}
	if g.RewardPool, err = address("REWARD_POOL", false); err != nil {
		return nil, err
	}

	g.Host = getenv("PGSQL_HOST", "localhost")
	g.Port = getenv("PGSQL_PORT", "5432")
	g.User = os.Getenv("PGSQL_USER")
	g.Password = os.Getenv("PGSQL_PASSWORD")
	g.DBName = os.Getenv("PGSQL_DBNAME")

	return &g, nil
}

// ConnString is the lib/pq connection string for the route database.
func (g *General) ConnString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", g.Host, g.Port, g.User, g.Password, g.DBName)
}

func (g *General) HasDatabase() bool {
	return g.DBName != ""
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func address(key string, required bool) (common.Address, error) {
	v := os.Getenv(key)
	if v == "" {
		if required {
			return common.Address{}, fmt.Errorf("%s is not set", key)
		}
		return common.Address{}, nil
	}
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("%s is not a hex address: %q", key, v)
	}
	return common.HexToAddress(v), nil
}
