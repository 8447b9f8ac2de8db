package abihandler

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const ERC20Json = `[
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"}
]`

const UniV2RouterJson = `[
	{"inputs":[],"name":"factory","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"name":"amounts","type":"uint256[]"}],"stateMutability":"view","type":"function"}
]`

type AbiHandler struct {
	ERC20Abi       abi.ABI
	UniV2RouterAbi abi.ABI
}

func NewAbiHandler() (*AbiHandler, error) {
	var a AbiHandler
	var err error

	a.ERC20Abi, err = abi.JSON(strings.NewReader(ERC20Json))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 abi: %w", err)
	}
	a.UniV2RouterAbi, err = abi.JSON(strings.NewReader(UniV2RouterJson))
	if err != nil {
		return nil, fmt.Errorf("failed to parse UniswapV2 router abi: %w", err)
	}
	return &a, nil
}
