package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/densitylab/hdbscan"
	"github.com/spf13/cobra"
)

// options holds the command-line flags. Values only override the config
// file when the flag was set explicitly.
type options struct {
	configPath  string
	input       string
	output      string
	header      bool
	precomputed bool
	tree        bool
	verbose     bool

	minClusterSize int
	minSamples     int
	alpha          float64
	method         string
	allowSingle    bool
	epsilon        float64
	epsilonMax     float64
	persistence    float64
	maxClusterSize int
	metric         string
	p              float64
	algorithm      string
	leafSize       int
	workers        int
}

func newRootCmd() *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:   "hdbscan",
		Short: "Cluster CSV data with HDBSCAN*",
		Long: `Reads points (one per row) or a square distance matrix from CSV,
runs HDBSCAN* and writes labels, membership probabilities, outlier scores
and per-cluster statistics as JSON.

Parameters come from an optional YAML file (--config); flags override it.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.configPath, "config", "c", "", "YAML config file")
	f.StringVarP(&o.input, "input", "i", "-", "Input CSV file (- for stdin)")
	f.StringVarP(&o.output, "output", "o", "-", "Output JSON file (- for stdout)")
	f.BoolVar(&o.header, "header", false, "Skip the first CSV row")
	f.BoolVar(&o.precomputed, "precomputed", false, "Treat the input as an n x n distance matrix")
	f.BoolVar(&o.tree, "tree", false, "Include the condensed tree in the output")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Log pipeline stages to stderr")

	f.IntVarP(&o.minClusterSize, "min-cluster-size", "m", 5, "Smallest group considered a cluster")
	f.IntVarP(&o.minSamples, "min-samples", "k", 0, "Neighbors for the core distance (0 = min-cluster-size)")
	f.Float64Var(&o.alpha, "alpha", 1, "Distance scaling factor")
	f.StringVar(&o.method, "method", string(hdbscan.SelectionEOM), "Cluster selection method (eom, leaf)")
	f.BoolVar(&o.allowSingle, "allow-single-cluster", false, "Allow a single cluster covering all points")
	f.Float64Var(&o.epsilon, "epsilon", 0, "Cluster selection epsilon")
	f.Float64Var(&o.epsilonMax, "epsilon-max", 0, "Upper epsilon bound for EOM selection (0 = unbounded)")
	f.Float64Var(&o.persistence, "persistence", 0, "Minimum cluster persistence")
	f.IntVar(&o.maxClusterSize, "max-cluster-size", 0, "Largest cluster EOM may select (0 = unlimited)")
	f.StringVar(&o.metric, "metric", "euclidean", "Distance metric (euclidean, manhattan, chebyshev, cosine, minkowski)")
	f.Float64Var(&o.p, "p", 2, "Minkowski exponent")
	f.StringVar(&o.algorithm, "algorithm", string(hdbscan.AlgorithmAuto), "Neighbor search (auto, brute, kdtree, balltree)")
	f.IntVar(&o.leafSize, "leaf-size", 40, "KD-tree leaf size")
	f.IntVarP(&o.workers, "workers", "w", 1, "Goroutines for core distance queries")

	return cmd
}

// resolveConfig merges the config file with explicitly set flags.
func resolveConfig(cmd *cobra.Command, o *options) (hdbscan.Config, error) {
	fc, err := loadConfig(o.configPath)
	if err != nil {
		return hdbscan.Config{}, err
	}
	cfg := fc.Config

	f := cmd.Flags()
	set := func(name string, apply func()) {
		if f.Changed(name) {
			apply()
		}
	}
	set("min-cluster-size", func() { cfg.MinClusterSize = o.minClusterSize })
	set("min-samples", func() { cfg.MinSamples = o.minSamples })
	set("alpha", func() { cfg.Alpha = o.alpha })
	set("method", func() { cfg.ClusterSelectionMethod = hdbscan.SelectionMethod(o.method) })
	set("allow-single-cluster", func() { cfg.AllowSingleCluster = o.allowSingle })
	set("epsilon", func() { cfg.ClusterSelectionEpsilon = o.epsilon })
	set("epsilon-max", func() { cfg.ClusterSelectionEpsilonMax = o.epsilonMax })
	set("persistence", func() { cfg.ClusterSelectionPersistence = o.persistence })
	set("max-cluster-size", func() { cfg.MaxClusterSize = o.maxClusterSize })
	set("algorithm", func() { cfg.Algorithm = hdbscan.Algorithm(o.algorithm) })
	set("leaf-size", func() { cfg.LeafSize = o.leafSize })
	set("workers", func() { cfg.Workers = o.workers })
	set("metric", func() { fc.Metric = o.metric })
	set("p", func() { fc.P = o.p })

	cfg.Metric, err = parseMetric(fc.Metric, fc.P)
	if err != nil {
		return hdbscan.Config{}, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, o *options) error {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := resolveConfig(cmd, o)
	if err != nil {
		return err
	}
	cfg.Logger = logger

	in, closeIn, err := openInput(cmd, o.input)
	if err != nil {
		return err
	}
	defer closeIn()

	rows, err := readCSV(in, o.header)
	if err != nil {
		return err
	}

	var res *hdbscan.Result
	if o.precomputed {
		matrix, n, err := squareMatrix(rows)
		if err != nil {
			return err
		}
		res, err = hdbscan.ClusterPrecomputed(matrix, n, cfg)
		if err != nil {
			return err
		}
	} else {
		res, err = hdbscan.Cluster(rows, cfg)
		if err != nil {
			return err
		}
	}

	noise := 0
	for _, l := range res.Labels {
		if l < 0 {
			noise++
		}
	}
	logger.Info("clustering finished", "points", len(res.Labels), "clusters", res.NumClusters(), "noise", noise)

	out, closeOut, err := openOutput(cmd, o.output)
	if err != nil {
		return err
	}
	if err := writeResult(out, res, o.tree); err != nil {
		_ = closeOut()
		return err
	}
	return closeOut()
}

func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output: %w", err)
	}
	return f, f.Close, nil
}
