package main

import (
	"fmt"
	"os"

	"github.com/densitylab/hdbscan"
	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML layout of a config file. Clustering parameters use
// the library's field tags; the metric is named instead of embedded.
type fileConfig struct {
	hdbscan.Config `yaml:",inline"`

	Metric string  `yaml:"metric"`
	P      float64 `yaml:"p"`
}

// loadConfig reads path on top of the library defaults. An empty path
// returns the defaults unchanged.
func loadConfig(path string) (*fileConfig, error) {
	fc := &fileConfig{Config: hdbscan.DefaultConfig(), Metric: "euclidean", P: 2}
	if path == "" {
		return fc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	return fc, nil
}

// parseMetric maps a metric name to its implementation. p is only read for
// "minkowski".
func parseMetric(name string, p float64) (hdbscan.DistanceMetric, error) {
	switch name {
	case "euclidean", "l2":
		return hdbscan.EuclideanMetric{}, nil
	case "manhattan", "l1", "cityblock":
		return hdbscan.ManhattanMetric{}, nil
	case "chebyshev", "linf":
		return hdbscan.ChebyshevMetric{}, nil
	case "cosine":
		return hdbscan.CosineMetric{}, nil
	case "minkowski":
		if p < 1 {
			return nil, fmt.Errorf("minkowski p must be >= 1, got %g", p)
		}
		return hdbscan.MinkowskiMetric{P: p}, nil
	default:
		return nil, fmt.Errorf("unknown metric %q", name)
	}
}
