package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"adOptimizer/business/bandit"
	"adOptimizer/business/optimizer"
	"adOptimizer/business/preprocess"
	"adOptimizer/domain"
)

type sharesOptions struct {
	file       string
	output     string
	optimize   []string
	accelerate bool
	memory     bool
	shape      string
	cutoff     int
	cutLevel   float64
	seed       uint64
	asJSON     bool
	debug      bool
}

func newSharesCmd() *cobra.Command {
	defaults := bandit.DefaultConfig()
	opts := sharesOptions{}

	cmd := &cobra.Command{
		Use:   "shares",
		Short: "Compute next period's budget shares from a CSV or JSON stats export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShares(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Stats file (.csv or .json), - for stdin as CSV")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "share", "Output: share or status")
	cmd.Flags().StringSliceVar(&opts.optimize, "optimize", nil, "Metrics to optimize (impressions,engagements,clicks,conversions); default weighs all automatically")
	cmd.Flags().BoolVar(&opts.accelerate, "accelerate", false, "Shift budget faster towards the best option")
	cmd.Flags().BoolVar(&opts.memory, "memory", defaults.Memory, "Weigh results by age")
	cmd.Flags().StringVar(&opts.shape, "shape", defaults.Shape.String(), "Decay shape: constant, linear, degressive or progressive")
	cmd.Flags().IntVar(&opts.cutoff, "cutoff", defaults.Cutoff, "Days of history to keep")
	cmd.Flags().Float64Var(&opts.cutLevel, "cut-level", defaults.CutLevel, "Weight of results at the cutoff")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Seed the sampler for reproducible shares (0 = random)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Render JSON output")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Include each option's posterior (JSON output only)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runShares(cmd *cobra.Command, opts sharesOptions) error {
	output, err := optimizer.ParseOutput(opts.output)
	if err != nil {
		return err
	}
	cfg, err := bandit.NewConfig(opts.memory, opts.shape, opts.cutoff, opts.cutLevel)
	if err != nil {
		return err
	}

	var weights preprocess.Weights
	if len(opts.optimize) > 0 {
		weights, err = preprocess.WeightsForOptimize(opts.optimize)
		if err != nil {
			return err
		}
	}

	records, err := readStats(cmd.InOrStdin(), opts.file)
	if err != nil {
		return err
	}

	var svcOpts []optimizer.ServiceOption
	if opts.seed != 0 {
		svcOpts = append(svcOpts, optimizer.WithSampler(bandit.NewSeededSampler(opts.seed)))
	}
	svc := optimizer.NewService(nil, nil, nil, optimizer.Settings{Bandit: cfg, Accelerate: opts.accelerate}, svcOpts...)

	result, err := svc.Optimize(context.Background(), optimizer.Request{
		Records: records,
		Weights: weights,
		Output:  output,
		Debug:   opts.debug,
	})
	for _, r := range result.Rejections {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped row %d: %s\n", r.Row, r.Reason)
	}
	if err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return renderResults(cmd.OutOrStdout(), result)
}

func readStats(stdin io.Reader, path string) ([]domain.RawRecord, error) {
	if path == "-" {
		return preprocess.ReadCSV(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		var records []domain.RawRecord
		dec := json.NewDecoder(f)
		dec.UseNumber()
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return records, nil
	}
	return preprocess.ReadCSV(f)
}

func renderResults(w io.Writer, result domain.OptimizationResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	var header []string
	if len(result.Results) > 0 {
		for _, f := range result.Results[0].Identity {
			header = append(header, strings.ToUpper(f.Name))
		}
	}
	header = append(header, "RESULT")
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, r := range result.Results {
		row := make([]string, 0, len(r.Identity)+1)
		for _, f := range r.Identity {
			row = append(row, f.Value)
		}
		if r.Share != nil {
			row = append(row, strconv.FormatFloat(*r.Share*100, 'f', 2, 64)+"%")
		} else {
			row = append(row, r.StatusLabel())
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	if len(result.ChannelShares) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "CHANNEL\tSHARE")
		for _, ch := range slices.Sorted(maps.Keys(result.ChannelShares)) {
			fmt.Fprintf(tw, "%s\t%.2f%%\n", ch, result.ChannelShares[ch]*100)
		}
	}
	return tw.Flush()
}
