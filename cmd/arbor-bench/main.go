// arbor-bench is a benchmark and stress test for the arbor library.
// It builds a two-level tree and measures transaction throughput,
// copy-on-write cost, and snapshot acquisition under a concurrent writer.
package main

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/phroun/arbor"
)

type BenchResult struct {
	Name     string
	Duration time.Duration
	Ops      int
	Extra    string
}

func (r BenchResult) String() string {
	if r.Ops > 0 {
		opsPerSec := float64(r.Ops) / r.Duration.Seconds()
		if r.Extra != "" {
			return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec) %s", r.Name, r.Duration.Round(time.Millisecond), r.Ops, opsPerSec, r.Extra)
		}
		return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec)", r.Name, r.Duration.Round(time.Millisecond), r.Ops, opsPerSec)
	}
	if r.Extra != "" {
		return fmt.Sprintf("%-40s %12v  %s", r.Name, r.Duration.Round(time.Millisecond), r.Extra)
	}
	return fmt.Sprintf("%-40s %12v", r.Name, r.Duration.Round(time.Millisecond))
}

// leaf carries a fixed payload so copy-on-write moves a realistic amount of
// data per detached node.
type leaf struct {
	payload [64]byte
	serial  int
}

type branch struct {
	leaves []arbor.Node[leaf]
}

func (b *branch) Clone(tx *arbor.Tx) branch {
	out := branch{leaves: make([]arbor.Node[leaf], len(b.leaves))}
	for i := range b.leaves {
		out.leaves[i] = b.leaves[i].Copy(tx)
	}
	return out
}

type tree struct {
	branches []arbor.Node[branch]
}

func (t *tree) Clone(tx *arbor.Tx) tree {
	out := tree{branches: make([]arbor.Node[branch], len(t.branches))}
	for i := range t.branches {
		out.branches[i] = t.branches[i].Copy(tx)
	}
	return out
}

func buildTree(branches, leaves int) tree {
	t := tree{branches: make([]arbor.Node[branch], branches)}
	for i := range t.branches {
		b := branch{leaves: make([]arbor.Node[leaf], leaves)}
		for j := range b.leaves {
			b.leaves[j] = arbor.NewNode(leaf{serial: i*leaves + j})
		}
		t.branches[i] = arbor.NewNode(b)
	}
	return t
}

func main() {
	branches := pflag.Int("branches", 64, "branch nodes in the tree")
	leaves := pflag.Int("leaves", 64, "leaf nodes per branch")
	transactions := pflag.Int("transactions", 10000, "transactions per benchmark")
	readers := pflag.Int("readers", 4, "concurrent snapshot readers")
	pflag.Parse()

	fmt.Println("Arbor Benchmark and Stress Test")
	fmt.Println("===============================")
	fmt.Printf("Tree: %d branches x %d leaves (%d nodes)\n", *branches, *leaves, (*branches)*(*leaves))
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))
	fmt.Println()

	root := arbor.NewRoot(arbor.NewValue(buildTree(*branches, *leaves)))

	var results []BenchResult
	runBench := func(name string, fn func() BenchResult) {
		fmt.Printf("  %-40s ", name+"...")
		result := fn()
		fmt.Printf("%v\n", result.Duration.Round(time.Millisecond))
		results = append(results, result)
	}

	fmt.Println("Running benchmarks...")
	fmt.Println()

	runBench("Empty transaction cycle", func() BenchResult {
		start := time.Now()
		for i := 0; i < *transactions; i++ {
			tx, _ := root.Begin()
			if err := root.Commit(tx); err != nil {
				fail(err)
			}
		}
		return BenchResult{Name: "Empty transaction cycle", Duration: time.Since(start), Ops: *transactions}
	})

	runBench("Single-leaf edit per transaction", func() BenchResult {
		start := time.Now()
		for i := 0; i < *transactions; i++ {
			tx, t := root.Begin()
			b := t.branches[i%*branches].Mut(tx)
			b.leaves[i%*leaves].Mut(tx).serial = i
			if err := root.Commit(tx); err != nil {
				fail(err)
			}
		}
		return BenchResult{
			Name:     "Single-leaf edit per transaction",
			Duration: time.Since(start),
			Ops:      *transactions,
			Extra:    "(3 copies per commit: root, branch, leaf)",
		}
	})

	runBench("Repeated edits of one leaf", func() BenchResult {
		tx, t := root.Begin()
		start := time.Now()
		b := t.branches[0].Mut(tx)
		for i := 0; i < *transactions; i++ {
			b.leaves[0].Mut(tx).serial = i
		}
		elapsed := time.Since(start)
		edits := tx.OpenEdits()
		if err := root.Commit(tx); err != nil {
			fail(err)
		}
		return BenchResult{
			Name:     "Repeated edits of one leaf",
			Duration: elapsed,
			Ops:      *transactions,
			Extra:    fmt.Sprintf("(%d open edits total)", edits),
		}
	})

	runBench("Whole-tree touch in one transaction", func() BenchResult {
		start := time.Now()
		tx, t := root.Begin()
		for i := range t.branches {
			b := t.branches[i].Mut(tx)
			for j := range b.leaves {
				b.leaves[j].Mut(tx).serial = -1
			}
		}
		edits := tx.OpenEdits()
		if err := root.Commit(tx); err != nil {
			fail(err)
		}
		return BenchResult{
			Name:     "Whole-tree touch in one transaction",
			Duration: time.Since(start),
			Ops:      (*branches)*(*leaves) + *branches + 1,
			Extra:    fmt.Sprintf("(%d open edits)", edits),
		}
	})

	runBench("Snapshots under a concurrent writer", func() BenchResult {
		var reads atomic.Int64
		stop := make(chan struct{})

		var g errgroup.Group
		g.Go(func() error {
			defer close(stop)
			for i := 0; i < *transactions; i++ {
				tx, t := root.Begin()
				t.branches[i%*branches].Mut(tx)
				if err := root.Commit(tx); err != nil {
					return err
				}
			}
			return nil
		})

		start := time.Now()
		for w := 0; w < *readers; w++ {
			g.Go(func() error {
				for {
					select {
					case <-stop:
						return nil
					default:
					}
					snap := root.Snapshot()
					if !snap.IsValid() {
						return fmt.Errorf("invalid snapshot")
					}
					reads.Add(1)
				}
			})
		}
		if err := g.Wait(); err != nil {
			fail(err)
		}
		return BenchResult{
			Name:     "Snapshots under a concurrent writer",
			Duration: time.Since(start),
			Ops:      int(reads.Load()),
			Extra:    fmt.Sprintf("(%d commits alongside)", *transactions),
		}
	})

	fmt.Println()
	fmt.Println("Results:")
	fmt.Println("========")
	for _, r := range results {
		fmt.Println(r)
	}
}

func fail(err error) {
	fmt.Printf("benchmark failed: %v\n", err)
	os.Exit(1)
}
