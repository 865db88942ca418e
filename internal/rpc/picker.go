// Package rpc chooses which JSON-RPC endpoint w3fund talks to when a
// network has more than one configured.
package rpc

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrNoHealthyRPC is returned when no endpoint answered.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm is the endpoint selection strategy.
type Algorithm string

const (
	// AlgorithmFastest benchmarks every endpoint and keeps the best score.
	AlgorithmFastest Algorithm = "fastest"
	// AlgorithmFailover keeps configured order and skips dead endpoints.
	AlgorithmFailover Algorithm = "failover"

	// Nodes more than this many blocks behind the tip are considered stale.
	staleBlockThreshold = 3
)

// ParseAlgorithm validates a configured algorithm name. Empty means fastest.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case "", AlgorithmFastest:
		return AlgorithmFastest, nil
	case AlgorithmFailover:
		return AlgorithmFailover, nil
	}
	return "", fmt.Errorf("unknown rpc algorithm %q (want %q or %q)", s, AlgorithmFastest, AlgorithmFailover)
}

// Endpoint is one measured RPC endpoint.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Healthy     bool
}

// Pick selects an endpoint from already-measured candidates.
func Pick(algo Algorithm, endpoints []Endpoint) (*Endpoint, error) {
	if algo == AlgorithmFailover {
		for i := range endpoints {
			if endpoints[i].Healthy {
				return &endpoints[i], nil
			}
		}
		return nil, ErrNoHealthyRPC
	}
	ranked := Rank(endpoints)
	if len(ranked) == 0 {
		return nil, ErrNoHealthyRPC
	}
	return &ranked[0], nil
}

// Rank returns the healthy, non-stale endpoints ordered best first.
func Rank(endpoints []Endpoint) []Endpoint {
	var tip uint64
	for _, e := range endpoints {
		if e.Healthy && e.BlockNumber > tip {
			tip = e.BlockNumber
		}
	}
	var out []Endpoint
	for _, e := range endpoints {
		if !e.Healthy || tip-e.BlockNumber > staleBlockThreshold {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return score(out[i], tip) > score(out[j], tip)
	})
	return out
}

// score favours low latency and loses a point per block behind the tip.
func score(e Endpoint, tip uint64) float64 {
	var s float64
	if ms := e.Latency.Milliseconds(); ms > 0 {
		s += 1000.0 / float64(ms)
	} else {
		s += 1000.0
	}
	s += float64(10 - int64(tip-e.BlockNumber))
	return s
}
