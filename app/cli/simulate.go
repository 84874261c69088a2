package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"adOptimizer/business/bandit"
	"adOptimizer/business/simulation"
	"adOptimizer/business/split"
)

func newSimulateCmd() *cobra.Command {
	p := simulation.DefaultParams()
	var (
		method     string
		correction string
		shape      string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate split testing against the bandit on a synthetic market",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			corr, err := split.ParseCorrection(correction)
			if err != nil {
				return err
			}
			p.Correction = corr
			if p.Bandit.Shape, err = bandit.ParseShape(shape); err != nil {
				return err
			}
			if err := p.Bandit.Validate(); err != nil {
				return err
			}

			var out any
			if method == "compare" {
				out, err = simulation.CompareMethods(p)
			} else {
				if p.Method, err = simulation.ParseMethod(method); err != nil {
					return err
				}
				out, err = simulation.Simulate(p)
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			return renderSimulation(cmd, out)
		},
	}

	f := cmd.Flags()
	f.StringVar(&method, "method", "compare", "split, bandit or compare")
	f.IntVar(&p.Periods, "periods", p.Periods, "Number of periods")
	f.Float64SliceVar(&p.TrueRates, "rates", p.TrueRates, "True success rate of each option")
	f.Float64Var(&p.Trials, "trials", p.Trials, "Budget spent per period")
	f.Float64Var(&p.Deviation, "deviation", p.Deviation, "Relative standard deviation of observed rates")
	f.Float64Var(&p.Change, "change", p.Change, "Maximum relative rate drift per period")
	f.Float64Var(&p.MaxP, "max-p", p.MaxP, "Split test significance level")
	f.StringVar(&correction, "correction", "bonferroni", "Split test correction: bonferroni or sidak")
	f.BoolVar(&p.Rounding, "rounding", p.Rounding, "Round trials and successes")
	f.BoolVar(&p.Accelerate, "accelerate", p.Accelerate, "Accelerate the bandit")
	f.BoolVar(&p.Bandit.Memory, "memory", p.Bandit.Memory, "Bandit weighs results by age")
	f.StringVar(&shape, "shape", p.Bandit.Shape.String(), "Bandit decay shape")
	f.IntVar(&p.Bandit.Cutoff, "cutoff", p.Bandit.Cutoff, "Bandit retention in periods")
	f.Float64Var(&p.Bandit.CutLevel, "cut-level", p.Bandit.CutLevel, "Bandit weight at the cutoff")
	f.Uint64Var(&p.Seed, "seed", p.Seed, "Random seed")
	f.BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func renderSimulation(cmd *cobra.Command, out any) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)

	switch res := out.(type) {
	case simulation.Comparison:
		fmt.Fprintln(tw, "PERIOD\tSPLIT\tBANDIT\tOPTIMUM\tBASE\t")
		for i := range res.Split {
			fmt.Fprintf(tw, "%d\t%.0f\t%.0f\t%.0f\t%.0f\t\n",
				i+1, res.Split[i], res.Bandit[i], res.MaxSuccesses[i], res.BaseSuccesses[i])
		}
	case simulation.Result:
		fmt.Fprintln(tw, "PERIOD\tSUCCESSES\tOPTIMUM\tBASE\t")
		for i := range res.Successes {
			fmt.Fprintf(tw, "%d\t%.0f\t%.0f\t%.0f\t\n",
				i+1, res.Successes[i], res.MaxSuccesses[i], res.BaseSuccesses[i])
		}
	}
	return tw.Flush()
}
