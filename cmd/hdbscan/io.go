package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/densitylab/hdbscan"
)

// readCSV parses every record of r as a row of floats.
func readCSV(r io.Reader, skipHeader bool) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var rows [][]float64
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		if line == 1 && skipHeader {
			continue
		}

		row := make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %d: %w", line, j+1, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// squareMatrix flattens rows into a row-major n x n matrix.
func squareMatrix(rows [][]float64) ([]float64, int, error) {
	n := len(rows)
	flat := make([]float64, 0, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, 0, fmt.Errorf("distance matrix row %d has %d columns, want %d", i+1, len(row), n)
		}
		flat = append(flat, row...)
	}
	return flat, n, nil
}

// jsonFloat encodes non-finite values as null, which encoding/json rejects
// otherwise. Stabilities are +Inf when points coincide.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

type clusterSummary struct {
	Label     int       `json:"label"`
	ID        int       `json:"id"`
	Size      int       `json:"size"`
	Stability jsonFloat `json:"stability"`
}

type treeEntry struct {
	Parent    int       `json:"parent"`
	Child     int       `json:"child"`
	Lambda    jsonFloat `json:"lambda"`
	ChildSize int       `json:"child_size"`
}

type output struct {
	Labels        []int            `json:"labels"`
	Probabilities []float64        `json:"probabilities"`
	OutlierScores []float64        `json:"outlier_scores"`
	NumClusters   int              `json:"num_clusters"`
	Clusters      []clusterSummary `json:"clusters"`
	CondensedTree []treeEntry      `json:"condensed_tree,omitempty"`
}

func writeResult(w io.Writer, res *hdbscan.Result, withTree bool) error {
	sizes := make([]int, len(res.SelectedClusters))
	for _, l := range res.Labels {
		if l >= 0 {
			sizes[l]++
		}
	}

	out := output{
		Labels:        res.Labels,
		Probabilities: res.Probabilities,
		OutlierScores: res.OutlierScores,
		NumClusters:   res.NumClusters(),
		Clusters:      []clusterSummary{},
	}
	for label, id := range res.SelectedClusters {
		if sizes[label] == 0 {
			continue
		}
		out.Clusters = append(out.Clusters, clusterSummary{
			Label:     label,
			ID:        id,
			Size:      sizes[label],
			Stability: jsonFloat(res.Stabilities[id]),
		})
	}
	if withTree {
		for _, e := range res.CondensedTree {
			out.CondensedTree = append(out.CondensedTree, treeEntry{
				Parent:    e.Parent,
				Child:     e.Child,
				Lambda:    jsonFloat(e.LambdaVal),
				ChildSize: e.ChildSize,
			})
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	return nil
}
