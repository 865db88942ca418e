package rpc

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Mohsinsiddi/w3fund/internal/chain"
)

// pingTimeout bounds a single benchmark probe.
const pingTimeout = 5 * time.Second

// BenchmarkResult is the outcome of probing one endpoint.
type BenchmarkResult struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Err         error
}

// Benchmark pings every URL in parallel. Results keep the input order;
// a failed probe is recorded in Err and never aborts the others.
func Benchmark(ctx context.Context, urls []string) []BenchmarkResult {
	results := make([]BenchmarkResult, len(urls))
	var g errgroup.Group
	for i, u := range urls {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, pingTimeout)
			defer cancel()
			latency, block, err := chain.NewEVMClient(u).Ping(pctx)
			results[i] = BenchmarkResult{URL: u, Latency: latency, BlockNumber: block, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Endpoints converts benchmark results for Pick.
func Endpoints(results []BenchmarkResult) []Endpoint {
	out := make([]Endpoint, 0, len(results))
	for _, r := range results {
		out = append(out, Endpoint{
			URL:         r.URL,
			Latency:     r.Latency,
			BlockNumber: r.BlockNumber,
			Healthy:     r.Err == nil,
		})
	}
	return out
}

// SelectBest returns the URL to use for urls under algo. A single URL is
// returned without probing.
func SelectBest(ctx context.Context, urls []string, algo Algorithm) (string, error) {
	switch len(urls) {
	case 0:
		return "", ErrNoHealthyRPC
	case 1:
		return urls[0], nil
	}
	winner, err := Pick(algo, Endpoints(Benchmark(ctx, urls)))
	if err != nil {
		return "", err
	}
	return winner.URL, nil
}
