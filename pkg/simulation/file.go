package simulation

import (
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/BurntSushi/toml"
)

const defaultDecimals = 18

// File describes a simulated deployment and the calls governance makes
// against it. Tokens, exchanges and pools are referred to by name; amounts are
// decimal strings in whole token units.
type File struct {
	Decimals   int    `toml:"decimals"`
	Governance string `toml:"governance"`
	Forwarder  string `toml:"forwarder"`
	Provider   string `toml:"provider"`
	FeeSink    string `toml:"fee_sink"`
	Underlying string `toml:"underlying"`

	Tokens     map[string]string `toml:"tokens"`
	Balances   map[string]string `toml:"balances"`
	Allowances map[string]string `toml:"allowances"`

	Exchanges []ExchangeEntry `toml:"exchange"`
	Pools     []PoolEntry     `toml:"pool"`
	Routes    []RouteEntry    `toml:"route"`
	Steps     []StepEntry     `toml:"step"`
}

type ExchangeEntry struct {
	Name   string      `toml:"name"`
	Router string      `toml:"router"`
	Paused bool        `toml:"paused"`
	Pairs  []PairEntry `toml:"pair"`
}

type PairEntry struct {
	Tokens   [2]string `toml:"tokens"`
	Reserves [2]string `toml:"reserves"`
}

type PoolEntry struct {
	Name    string `toml:"name"`
	Address string `toml:"address"`
	Closed  bool   `toml:"closed"`
}

type RouteEntry struct {
	Token    string   `toml:"token"`
	Path     []string `toml:"path"`
	Exchange string   `toml:"exchange"`
}

const (
	StepFixed   = "fixed"
	StepBuyback = "buyback"
)

type StepEntry struct {
	Kind      string `toml:"kind"`
	Token     string `toml:"token"`
	Amount    string `toml:"amount"`
	Total     string `toml:"total"`
	Fee       string `toml:"fee"`
	Buyback   string `toml:"buyback"`
	MinOutput string `toml:"min_output"`
	Pool      string `toml:"pool"`
}

func LoadFile(path string) (File, error) {
	var file File
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return File{}, fmt.Errorf("failed to decode simulation %s: %w", path, err)
	}
	return file, nil
}

func Decode(r io.Reader) (File, error) {
	var file File
	if _, err := toml.NewDecoder(r).Decode(&file); err != nil {
		return File{}, fmt.Errorf("failed to decode simulation: %w", err)
	}
	return file, nil
}

func (f File) decimals() int {
	if f.Decimals <= 0 {
		return defaultDecimals
	}
	return f.Decimals
}

// ParseAmount converts a decimal string such as "12.5" into base units.
// An empty string is zero.
func ParseAmount(s string, decimals int) (*big.Int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	if s == "" {
		return new(big.Int), nil
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if r.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	r.Mul(r, new(big.Rat).SetInt(unit(decimals)))
	if !r.IsInt() {
		return nil, fmt.Errorf("amount %q has more than %d decimals", s, decimals)
	}
	return new(big.Int).Set(r.Num()), nil
}

// FormatAmount renders base units as a decimal string with the given
// number of decimals, trailing zeros trimmed.
func FormatAmount(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	sign := ""
	if amount.Sign() < 0 {
		sign = "-"
	}
	q, m := new(big.Int).QuoRem(new(big.Int).Abs(amount), unit(decimals), new(big.Int))
	if m.Sign() == 0 {
		return sign + q.String()
	}
	frac := m.String()
	frac = strings.Repeat("0", decimals-len(frac)) + frac
	return sign + q.String() + "." + strings.TrimRight(frac, "0")
}

func unit(decimals int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}
