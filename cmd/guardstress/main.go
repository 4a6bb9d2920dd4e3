// Command guardstress churns a liveness.Guard from many goroutines:
// acquire an identity, track a resource, schedule fake async work
// against it, validate safety handles, then drain and release. It
// exits non-zero if any invariant breaks (duplicate live id, leak at
// close).
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/liveness"
	"github.com/wippyai/liveness/job"
)

type config struct {
	Workers int   `env:"STRESS_WORKERS" envDefault:"8"`
	Ops     int   `env:"STRESS_OPS" envDefault:"4000"`
	MaxWait int   `env:"STRESS_MAX_WAIT_US" envDefault:"200"`
	Seed    int64 `env:"STRESS_SEED" envDefault:"1"`
}

type stats struct {
	acquired   atomic.Int64
	released   atomic.Int64
	opsDone    atomic.Int64
	handles    atomic.Int64
	violations atomic.Int64
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: parse env: %v\n", err)
		os.Exit(1)
	}

	var (
		workers     = flag.Int("workers", cfg.Workers, "Concurrent workers")
		ops         = flag.Int("ops", cfg.Ops, "Operations per worker")
		maxWait     = flag.Int("max-wait", cfg.MaxWait, "Max fake-op latency (µs)")
		seed        = flag.Int64("seed", cfg.Seed, "Base RNG seed")
		verbose     = flag.Bool("v", false, "Development logging to stderr")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()
	cfg.Workers = *workers
	cfg.Ops = *ops
	cfg.MaxWait = *maxWait
	cfg.Seed = *seed

	if *verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			liveness.SetLogger(l)
		}
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: -i requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	st := &stats{}
	start := time.Now()
	err := run(cfg, st)
	elapsed := time.Since(start)

	fmt.Printf("workers:   %d\n", cfg.Workers)
	fmt.Printf("acquired:  %d\n", st.acquired.Load())
	fmt.Printf("released:  %d\n", st.released.Load())
	fmt.Printf("ops done:  %d\n", st.opsDone.Load())
	fmt.Printf("handles:   %d\n", st.handles.Load())
	fmt.Printf("elapsed:   %v\n", elapsed.Round(time.Millisecond))

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

const kindStress = 1

// run drives the churn and reports the first invariant violation.
func run(cfg config, st *stats) error {
	sched := job.NewGoScheduler()
	g := liveness.NewGuard(sched)
	g.IDs().SetLockTimeout(time.Second)

	var mu sync.Mutex
	live := make(map[uint64]bool)

	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(cfg.Seed + int64(worker)))

			for i := 0; i < cfg.Ops; i++ {
				id, err := g.AcquireID()
				if err != nil {
					st.violations.Add(1)
					return
				}
				st.acquired.Add(1)

				mu.Lock()
				if live[id] {
					st.violations.Add(1)
					mu.Unlock()
					return
				}
				live[id] = true
				mu.Unlock()

				s, err := g.Track(id, kindStress, id)
				if err != nil {
					st.violations.Add(1)
					return
				}

				wait := time.Duration(rng.Intn(cfg.MaxWait+1)) * time.Microsecond
				s.AddJob(sched.Schedule(func() {
					time.Sleep(wait)
					st.opsDone.Add(1)
				}))

				h, err := g.NewHandle()
				if err != nil {
					st.violations.Add(1)
					return
				}
				st.handles.Add(1)
				if !g.Alive(h) {
					st.violations.Add(1)
					return
				}

				if i%4 == 0 {
					s.Check(false)
				}

				if err := g.DropHandle(h); err != nil {
					st.violations.Add(1)
					return
				}
				if g.Alive(h) {
					st.violations.Add(1)
					return
				}

				mu.Lock()
				delete(live, id)
				mu.Unlock()
				if err := g.ReleaseID(id); err != nil {
					st.violations.Add(1)
					return
				}
				st.released.Add(1)
			}
		}(w)
	}
	wg.Wait()

	if err := g.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if n := st.violations.Load(); n > 0 {
		return fmt.Errorf("%d invariant violation(s)", n)
	}
	return nil
}
