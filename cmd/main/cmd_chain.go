package main

import (
	"context"
	"fmt"

	"github.com/RestinGreen/fee-forwarder/pkg/abihandler"
	"github.com/RestinGreen/fee-forwarder/pkg/binding"
	"github.com/RestinGreen/fee-forwarder/pkg/chain"
	"github.com/RestinGreen/fee-forwarder/pkg/connection"
	"github.com/RestinGreen/fee-forwarder/pkg/general"
	"github.com/RestinGreen/fee-forwarder/pkg/peek"
	"github.com/RestinGreen/fee-forwarder/pkg/simulation"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (c *cli) dial(ctx context.Context, g *general.General) (*connection.Connection, *binding.Binding, error) {
	if g.RpcEndpoint == "" {
		return nil, nil, fmt.Errorf("RPC_ENDPOINT is not set")
	}
	abis, err := abihandler.NewAbiHandler()
	if err != nil {
		return nil, nil, err
	}
	conn, err := connection.NewConnection(ctx, g.RpcEndpoint)
	if err != nil {
		return nil, nil, err
	}
	c.logger.Debug("Connected to node", zap.String("endpoint", g.RpcEndpoint))
	return conn, binding.NewBinding(conn.EthClient, abis), nil
}

func (c *cli) quoteCmd() *cobra.Command {
	var amount string
	var decimals int
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote every configured route on the live exchanges",
		Long: `Checks that every route's router answers factory() like a UniswapV2 router,
then quotes each route with the same input amount.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amountIn, err := simulation.ParseAmount(amount, decimals)
			if err != nil {
				return err
			}
			g, err := c.config()
			if err != nil {
				return err
			}
			routes, err := c.storedRoutes(cmd.Context())
			if err != nil {
				return err
			}
			conn, b, err := c.dial(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer conn.Close()

			quoter := chain.NewQuoter(b)
			factories, err := quoter.Factories(cmd.Context(), routes)
			if err != nil {
				return err
			}
			quotes, err := quoter.QuoteAll(cmd.Context(), routes, amountIn)
			if err != nil {
				return err
			}
			p := peek.NewPeek(c.out, decimals)
			p.Factories(factories)
			p.Quotes(quotes)
			return nil
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "1", "input amount per route in whole tokens")
	cmd.Flags().IntVar(&decimals, "decimals", 18, "token decimals")
	return cmd
}

func (c *cli) balanceCmd() *cobra.Command {
	var token, account string
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Read a token balance from the chain, the underlying of governance by default",
		Long: `Reads the balance of --account in --token. When FORWARDER is configured the
allowance the account granted the forwarder is printed as well, and with
REWARD_POOL the reward pool's balance of the same token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.config()
			if err != nil {
				return err
			}
			tokenAddress, accountAddress := g.Underlying, g.Governance
			if token != "" {
				if tokenAddress, err = general.ParseAddress(token); err != nil {
					return err
				}
			}
			if account != "" {
				if accountAddress, err = general.ParseAddress(account); err != nil {
					return err
				}
			}
			conn, b, err := c.dial(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer conn.Close()

			reader := chain.NewBalanceReader(b)
			symbol, decimals, err := reader.Describe(cmd.Context(), tokenAddress)
			if err != nil {
				return err
			}
			balance, err := reader.BalanceOf(cmd.Context(), tokenAddress, accountAddress)
			if err != nil {
				return err
			}
			p := peek.NewPeek(c.out, int(decimals))
			p.Balance(tokenAddress, symbol, accountAddress, balance)

			if g.Forwarder != (common.Address{}) {
				allowance, err := reader.Allowance(cmd.Context(), tokenAddress, accountAddress, g.Forwarder)
				if err != nil {
					return err
				}
				p.Allowance(symbol, accountAddress, g.Forwarder, allowance)
			}
			if g.RewardPool != (common.Address{}) && g.RewardPool != accountAddress {
				pooled, err := reader.BalanceOf(cmd.Context(), tokenAddress, g.RewardPool)
				if err != nil {
					return err
				}
				p.Balance(tokenAddress, symbol, g.RewardPool, pooled)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token address")
	cmd.Flags().StringVar(&account, "account", "", "account address")
	return cmd
}
