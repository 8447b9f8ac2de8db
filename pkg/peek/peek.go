package peek

import (
	"fmt"
	"io"
	"math/big"
	"text/tabwriter"

	"github.com/RestinGreen/fee-forwarder/pkg/chain"
	"github.com/RestinGreen/fee-forwarder/pkg/simulation"
	"github.com/RestinGreen/fee-forwarder/pkg/types"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Peek prints routes, quotes, balances and simulation steps for the CLI.
type Peek struct {
	out      io.Writer
	decimals int
}

func NewPeek(out io.Writer, decimals int) *Peek {

	return &Peek{out: out, decimals: decimals}
}

func (p *Peek) amount(v *big.Int) string {
	return simulation.FormatAmount(v, p.decimals)
}

func (p *Peek) Routes(routes []types.Route) {
	fmt.Fprintln(p.out, titleStyle.Render(fmt.Sprintf("Routes: %d", len(routes))))
	w := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOKEN\tEXCHANGE\tHOPS\tPATH")
	for _, route := range routes {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", route.Token.Hex(), route.Exchange, route.Path.Hops(), route.Path)
	}
	w.Flush()
}

func (p *Peek) Quotes(quotes []chain.Quote) {
	fmt.Fprintln(p.out, titleStyle.Render("Quotes"))
	w := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOKEN\tEXCHANGE\tOUTPUT")
	for _, q := range quotes {
		output := p.amount(q.Output())
		if q.Err != nil {
			output = failStyle.Render("error: " + q.Err.Error())
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", q.Route.Token.Hex(), q.Route.Exchange, output)
	}
	w.Flush()
}

func (p *Peek) Factories(factories []chain.RouterFactory) {
	fmt.Fprintln(p.out, titleStyle.Render("Exchanges"))
	w := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EXCHANGE\tFACTORY")
	for _, f := range factories {
		factory := f.Factory.Hex()
		if f.Err != nil {
			factory = failStyle.Render("error: " + f.Err.Error())
		}
		fmt.Fprintf(w, "%s\t%s\n", f.Exchange, factory)
	}
	w.Flush()
}

func (p *Peek) Balance(token common.Address, symbol string, account common.Address, balance *big.Int) {
	fmt.Fprintf(p.out, "%s holds %s %s (%s)\n", account.Hex(), p.amount(balance), symbol, token.Hex())
}

func (p *Peek) Allowance(symbol string, owner, spender common.Address, allowance *big.Int) {
	fmt.Fprintf(p.out, "%s may pull %s %s from %s\n", spender.Hex(), p.amount(allowance), symbol, owner.Hex())
}

func (p *Peek) Step(r simulation.StepReport, poolNames []string) {
	status := "ok"
	if r.Err != nil {
		status = failStyle.Render("failed: " + r.Err.Error())
	}
	fmt.Fprintln(p.out, titleStyle.Render(fmt.Sprintf("Step %d: %s %s", r.Index, r.Step.Kind, r.Step.Token)))
	w := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "\tstatus\t%s\n", status)
	if r.Err == nil {
		fmt.Fprintf(w, "\tcall\t%s\n", r.Result.ID)
		fmt.Fprintf(w, "\tfee output\t%s\n", p.amount(r.Result.FeeOutput))
		fmt.Fprintf(w, "\tbuyback output\t%s\n", p.amount(r.Result.BuybackOutput))
	}
	fmt.Fprintf(w, "\tgovernance\t%s\n", p.amount(r.Governance))
	for _, name := range poolNames {
		fmt.Fprintf(w, "\tpool %s\t%s\n", name, p.amount(r.Pools[name]))
	}
	w.Flush()
}
