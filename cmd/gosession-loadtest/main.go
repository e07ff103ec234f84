// Command gosession-loadtest drives Handler.Start and Handler.Save against a
// seeded store and prints per-phase throughput and latency percentiles.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/payload"
	"github.com/alicebob/miniredis/v2"
)

type options struct {
	sessions    int
	concurrency int
	ops         int
	backend     string
	address     string
	dsn         string
	prefix      string
	tampered    float64
}

func main() {
	var o options
	flag.IntVar(&o.sessions, "sessions", 100000, "number of sessions to seed")
	flag.IntVar(&o.concurrency, "concurrency", 256, "number of concurrent workers")
	flag.IntVar(&o.ops, "ops", 200000, "operations per phase")
	flag.StringVar(&o.backend, "backend", "redis", "store backend name")
	flag.StringVar(&o.address, "addr", os.Getenv("REDIS_ADDR"), "store address; an empty redis address starts miniredis")
	flag.StringVar(&o.dsn, "dsn", "", "DSN for sqlite or postgres backends")
	flag.StringVar(&o.prefix, "prefix", "sess:", "session key prefix")
	flag.Float64Var(&o.tampered, "tampered", 0.01, "fraction of start operations using a forged identifier")
	flag.Parse()

	if err := run(context.Background(), o); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options) error {
	if o.sessions <= 0 || o.concurrency <= 0 || o.ops <= 0 {
		return fmt.Errorf("sessions, concurrency and ops must be > 0")
	}

	cfg := goSession.DefaultConfig()
	cfg.Secret = []byte("loadtest-secret-loadtest-secret-0000")
	cfg.Store.Backend = o.backend
	cfg.Store.Address = o.address
	cfg.Store.DSN = o.dsn
	cfg.Store.Prefix = o.prefix
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	if o.backend == "redis" && o.address == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start miniredis: %w", err)
		}
		defer mr.Close()
		cfg.Store.Address = mr.Addr()
	}
	fmt.Printf("backend=%s address=%s\n", cfg.Store.Backend, cfg.Store.Address)

	h, err := goSession.New().WithConfig(cfg).BuildContext(ctx)
	if err != nil {
		return fmt.Errorf("build handler: %w", err)
	}
	defer h.Close()

	ids, err := seed(ctx, h, o.sessions)
	if err != nil {
		return err
	}

	phases := []struct {
		name string
		op   func(*rand.Rand) error
	}{
		{"start", func(r *rand.Rand) error {
			id := ids[r.Intn(len(ids))]
			if r.Float64() < o.tampered {
				id = id[:len(id)-2] + "xx"
			}
			_, err := h.Start(ctx, id)
			return err
		}},
		{"start+save", func(r *rand.Rand) error {
			s, err := h.Start(ctx, ids[r.Intn(len(ids))])
			if err != nil {
				return err
			}
			s.Set("hits", r.Intn(1000))
			return h.Save(ctx, s)
		}},
	}

	fmt.Println("---- results ----")
	for _, p := range phases {
		fmt.Println(measure(o.ops, o.concurrency, p.op).format(p.name))
	}

	snap := h.MetricsSnapshot()
	fmt.Printf("tampered=%d created=%d loaded=%d saved=%d store_failures=%d\n",
		snap.Counters[goSession.MetricIdentifierTampered],
		snap.Counters[goSession.MetricSessionCreated],
		snap.Counters[goSession.MetricSessionLoaded],
		snap.Counters[goSession.MetricSessionSaved],
		snap.Counters[goSession.MetricStoreFailure],
	)
	fmt.Printf("store latency buckets=%v\n", snap.Histograms[goSession.MetricStoreLatency])
	return nil
}

func seed(ctx context.Context, h *goSession.Handler, n int) ([]string, error) {
	fmt.Printf("seeding %d sessions...\n", n)
	began := time.Now()
	ids := make([]string, n)
	for i := range ids {
		id, err := h.GenerateID()
		if err != nil {
			return nil, fmt.Errorf("generate: %w", err)
		}
		p := payload.Payload{
			"passport": map[string]any{"user": fmt.Sprintf("user-%d", i)},
			"cart":     []any{"sku-1", "sku-2"},
			"visits":   i % 17,
		}
		if err := h.Write(ctx, id, p); err != nil {
			return nil, fmt.Errorf("seed write: %w", err)
		}
		ids[i] = id
	}
	fmt.Printf("seeded in %s\n", time.Since(began).Round(time.Millisecond))
	return ids, nil
}

type result struct {
	elapsed  time.Duration
	samples  []time.Duration
	failures int64
}

// measure runs op ops times across workers goroutines. Each worker keeps its
// own samples; they are merged after the phase ends.
func measure(ops, workers int, op func(*rand.Rand) error) result {
	var (
		next     atomic.Int64
		failures atomic.Int64
		wg       sync.WaitGroup
	)
	perWorker := make([][]time.Duration, workers)

	began := time.Now()
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := rand.New(rand.NewSource(began.UnixNano() + int64(w)))
			for next.Add(1) <= int64(ops) {
				t := time.Now()
				if err := op(r); err != nil {
					failures.Add(1)
				}
				perWorker[w] = append(perWorker[w], time.Since(t))
			}
		}()
	}
	wg.Wait()

	res := result{elapsed: time.Since(began), failures: failures.Load()}
	for _, s := range perWorker {
		res.samples = append(res.samples, s...)
	}
	slices.Sort(res.samples)
	return res
}

func (r result) quantile(q float64) time.Duration {
	if len(r.samples) == 0 {
		return 0
	}
	return r.samples[int(q*float64(len(r.samples)-1))]
}

func (r result) format(name string) string {
	rate := 0.0
	if r.elapsed > 0 {
		rate = float64(len(r.samples)) / r.elapsed.Seconds()
	}
	return fmt.Sprintf("%-10s ops=%d failures=%d elapsed=%s ops/sec=%.0f p50=%s p95=%s p99=%s",
		name, len(r.samples), r.failures, r.elapsed.Round(time.Millisecond), rate,
		r.quantile(0.50).Round(time.Microsecond),
		r.quantile(0.95).Round(time.Microsecond),
		r.quantile(0.99).Round(time.Microsecond),
	)
}
