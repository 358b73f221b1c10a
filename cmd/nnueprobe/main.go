// Command nnueprobe evaluates a chess position with Stockfish NNUE networks
// and prints or renders the intermediate activations.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"
	"sort"
	"sync"

	"github.com/hailam/nnueprobe"
	"github.com/hailam/nnueprobe/internal/heatmap"
	"github.com/hailam/nnueprobe/internal/netfile"
	"github.com/hailam/nnueprobe/internal/tracestore"
)

const startposFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	fen        = flag.String("fen", startposFEN, "position to evaluate")
	bigFile    = flag.String("big", "", "path to the big network file")
	smallFile  = flag.String("small", "", "path to the small network file")
	weightsDir = flag.String("dir", "", "directory holding both network files")
	fetchNets  = flag.Bool("fetch", false, "download missing network files first")
	jsonOut    = flag.Bool("json", false, "print the full result as JSON")
	scalarOnly = flag.Bool("scalar", false, "print only the final evaluation")
	heatmapPfx = flag.String("heatmap", "", "write activation heatmaps with this file prefix")
	useCache   = flag.Bool("cache", false, "cache results in the persistent store")
	showInfo   = flag.Bool("info", false, "print network architecture constants and exit")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
)

// evaluator is satisfied by both Prober and CachedProber.
type evaluator interface {
	Evaluate(fen string) (float64, error)
	EvaluateWithActivations(fen string) (*nnueprobe.EvaluationResult, error)
}

func main() {
	flag.Parse()

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	if *showInfo {
		printInfo()
		return
	}

	prober, err := buildProber()
	if err != nil {
		log.Fatal(err)
	}

	var eval evaluator = prober
	if *useCache {
		dbDir, err := netfile.GetDatabaseDir()
		if err != nil {
			log.Fatal(err)
		}
		store, err := tracestore.Open(dbDir)
		if err != nil {
			log.Fatal(err)
		}
		defer store.Close()

		cached, err := nnueprobe.NewCachedProberWithStore(prober, 1024, store)
		if err != nil {
			log.Fatal(err)
		}
		defer cached.Close()
		eval = cached
	}

	if *scalarOnly && *heatmapPfx == "" {
		value, err := eval.Evaluate(*fen)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%+.2f\n", value)
		return
	}

	res, err := eval.EvaluateWithActivations(*fen)
	if err != nil {
		log.Fatal(err)
	}

	switch {
	case *scalarOnly:
		fmt.Printf("%+.2f\n", res.FinalEval)
	case *jsonOut:
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(string(out))
	default:
		printSummary(res)
	}

	if *heatmapPfx != "" {
		if err := writeHeatmaps(*heatmapPfx, res); err != nil {
			log.Fatal(err)
		}
	}
}

// buildProber resolves the network files from the flags, fetching them
// first when -fetch is given.
func buildProber() (*nnueprobe.Prober, error) {
	if *bigFile != "" || *smallFile != "" {
		if *bigFile == "" || *smallFile == "" {
			return nil, errors.New("-big and -small must be given together")
		}
		return nnueprobe.New(*bigFile, *smallFile)
	}

	dir := *weightsDir
	if *fetchNets {
		if dir == "" {
			d, err := netfile.GetNNUEDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		log.Printf("Fetching network files into %s", dir)
		if err := netfile.Fetch(context.Background(), dir, fetchProgress()); err != nil {
			return nil, err
		}
	}

	if dir == "" {
		located, err := netfile.Locate()
		if err != nil {
			return nil, err
		}
		dir = located
	}

	log.Printf("Loading networks from %s", dir)
	return nnueprobe.New(
		filepath.Join(dir, netfile.BigNet.Name),
		filepath.Join(dir, netfile.SmallNet.Name),
	)
}

// fetchProgress logs each download at every tenth of its expected size.
// Both files download concurrently, so the state needs a lock.
func fetchProgress() netfile.Progress {
	var mu sync.Mutex
	last := make(map[string]int64)

	return func(name string, done, total int64) {
		if total <= 0 {
			return
		}
		mu.Lock()
		defer mu.Unlock()

		pct := done * 100 / total
		if pct/10 > last[name]/10 {
			last[name] = pct
			log.Printf("  %s: %d%%", name, pct)
		}
	}
}

func printInfo() {
	info := nnueprobe.NetworkInfo()
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%-34s %d\n", k, info[k])
	}
}

func printSummary(res *nnueprobe.EvaluationResult) {
	variant := "big"
	if res.UseSmallNet {
		variant = "small"
	}

	whiteLo, whiteHi := tensorRange(res.AccumulatorWhite)
	blackLo, blackHi := tensorRange(res.AccumulatorBlack)

	fmt.Printf("fen:         %s\n", *fen)
	fmt.Printf("network:     %s (bucket %d)\n", variant, res.Bucket)
	fmt.Printf("evaluation:  %+.2f\n", res.FinalEval)
	fmt.Printf("accumulator: %d lanes, white [%g, %g], black [%g, %g]\n",
		len(res.AccumulatorWhite), whiteLo, whiteHi, blackLo, blackHi)
	fmt.Printf("psqt:        white %v\n", res.PSQT[0])
	fmt.Printf("             black %v\n", res.PSQT[1])
	fmt.Printf("layer1:      %v\n", res.Layer1)
	fmt.Printf("layer2:      %v\n", res.Layer2)
}

func tensorRange(values []float32) (lo, hi float32) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// writeHeatmaps renders the accumulator and both hidden layers as PNG grids.
func writeHeatmaps(prefix string, res *nnueprobe.EvaluationResult) error {
	accCols := 64
	if res.UseSmallNet {
		accCols = 16
	}

	images := []struct {
		name   string
		values []float32
		cols   int
	}{
		{"acc_white", res.AccumulatorWhite, accCols},
		{"acc_black", res.AccumulatorBlack, accCols},
		{"layer1", res.Layer1, 15},
		{"layer2", res.Layer2, 8},
	}
	for _, img := range images {
		path := prefix + "_" + img.name + ".png"
		if err := heatmap.WritePNG(path, heatmap.Render(img.values, img.cols), 8); err != nil {
			return err
		}
		log.Printf("Wrote %s", path)
	}
	return nil
}
