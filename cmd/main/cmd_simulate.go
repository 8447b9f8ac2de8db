package main

import (
	"github.com/RestinGreen/fee-forwarder/pkg/peek"
	"github.com/RestinGreen/fee-forwarder/pkg/simulation"
	"github.com/spf13/cobra"
)

func (c *cli) simulateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run forwarder calls against a deployment described in TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deployment, err := simulation.LoadFile(file)
			if err != nil {
				return err
			}
			sim, err := simulation.New(deployment, c.logger)
			if err != nil {
				return err
			}
			p := peek.NewPeek(c.out, sim.Decimals())
			p.Routes(sim.Memory.RouteMemory.Routes())
			names := sim.PoolNames()
			_, err = sim.Run(cmd.Context(), func(r simulation.StepReport) {
				p.Step(r, names)
			})
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "configs/simulation.toml", "simulation file")
	return cmd
}
