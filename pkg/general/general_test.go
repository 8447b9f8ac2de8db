package general

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RestinGreen/fee-forwarder/pkg/memory"
	"github.com/RestinGreen/fee-forwarder/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	quickHex  = "0x831753DD7087CaC61aB5644b308642cc1c33Dc13"
	wethHex   = "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619"
	ifarmHex  = "0xab0b2ddB9C7e440fAc8E140A89c0dbCBf2d7Bbff"
	govHex    = "0xf00dD244228F51547f0563e60bCa65a30FBF5f7f"
	routerHex = "0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"RPC_ENDPOINT", "LOG_LEVEL", "LOG_FORMAT", "ROUTES_FILE", "UNDERLYING", "GOVERNANCE",
		"FEE_SINK", "FORWARDER", "REWARD_POOL", "PGSQL_HOST", "PGSQL_PORT", "PGSQL_USER", "PGSQL_PASSWORD", "PGSQL_DBNAME"} {
		t.Setenv(key, "")
	}
}

func TestNewGeneralFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("UNDERLYING", ifarmHex)
	t.Setenv("GOVERNANCE", govHex)
	t.Setenv("PGSQL_DBNAME", "forwarder")
	t.Setenv("PGSQL_USER", "harvest")

	g, err := NewGeneral("")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(ifarmHex), g.Underlying)
	assert.Equal(t, common.HexToAddress(govHex), g.FeeSink, "fee sink defaults to governance")
	assert.Equal(t, "info", g.LogLevel)
	assert.True(t, g.HasDatabase())
	assert.Equal(t, "host=localhost port=5432 user=harvest password= dbname=forwarder sslmode=disable", g.ConnString())
}

func TestNewGeneralFromFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("UNDERLYING="+ifarmHex+"\nGOVERNANCE="+govHex+"\nLOG_LEVEL=debug\n"), 0o600))
	// godotenv does not override variables that are already set, even empty ones
	for _, key := range []string{"UNDERLYING", "GOVERNANCE", "LOG_LEVEL"} {
		require.NoError(t, os.Unsetenv(key))
	}
	t.Cleanup(func() {
		for _, key := range []string{"UNDERLYING", "GOVERNANCE", "LOG_LEVEL"} {
			os.Unsetenv(key)
		}
	})

	g, err := NewGeneral(envFile)
	require.NoError(t, err)
	assert.Equal(t, "debug", g.LogLevel)
	assert.Equal(t, common.HexToAddress(govHex), g.Governance)
}

func TestNewGeneralErrors(t *testing.T) {
	clearEnv(t)
	_, err := NewGeneral(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "UNDERLYING is not set")

	t.Setenv("UNDERLYING", "not-an-address")
	_, err = NewGeneral("")
	assert.ErrorContains(t, err, "UNDERLYING is not a hex address")
}

func TestDecodeRoutes(t *testing.T) {
	input := `
[[route]]
token = "` + quickHex + `"
path = ["` + quickHex + `", "` + wethHex + `", "` + ifarmHex + `"]
exchange = "quickswap"
router = "` + routerHex + `"
`
	routes, err := DecodeRoutes(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, common.HexToAddress(quickHex), routes[0].Token)
	assert.Equal(t, types.RoutePath{common.HexToAddress(quickHex), common.HexToAddress(wethHex), common.HexToAddress(ifarmHex)}, routes[0].Path)
	assert.Equal(t, types.ExchangeRef{Name: "quickswap", Router: common.HexToAddress(routerHex)}, routes[0].Exchange)

	var buf bytes.Buffer
	require.NoError(t, EncodeRoutes(&buf, routes))
	again, err := DecodeRoutes(&buf)
	require.NoError(t, err)
	assert.Equal(t, routes, again)
}

func TestDecodeRoutesRejectsBadAddresses(t *testing.T) {
	_, err := DecodeRoutes(strings.NewReader(`
[[route]]
token = "` + quickHex + `"
path = ["` + quickHex + `", "0x1234"]
router = "` + routerHex + `"
`))
	assert.ErrorContains(t, err, "route 0 hop 1")
}

func TestDecodeRoutesRejectsTwoRoutesForOneToken(t *testing.T) {
	entry := `
[[route]]
token = "` + quickHex + `"
path = ["` + quickHex + `", "` + ifarmHex + `"]
exchange = "quickswap"
router = "` + routerHex + `"
`
	_, err := DecodeRoutes(strings.NewReader(entry + entry))
	assert.ErrorIs(t, err, memory.ErrInvalidRoute)
	assert.ErrorContains(t, err, "routes 0 and 1")
}

func TestLoadRoutesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.toml")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, EncodeRoutes(f, []types.Route{{
		Token:    common.HexToAddress(quickHex),
		Path:     types.RoutePath{common.HexToAddress(quickHex), common.HexToAddress(ifarmHex)},
		Exchange: types.ExchangeRef{Name: "quickswap", Router: common.HexToAddress(routerHex)},
	}}))
	require.NoError(t, f.Close())

	routes, err := LoadRoutesFile(path)
	require.NoError(t, err)
	assert.Len(t, routes, 1)

	_, err = LoadRoutesFile(filepath.Join(t.TempDir(), "none.toml"))
	assert.Error(t, err)
}
