// Command btreebench drives the B+tree index and a Pebble LSM baseline
// through the same insert/locate/scan workload and reports latency and
// memory numbers, as a CSV with one mean-latency row per structure and
// operation, and a comparison chart.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/btreeidx/bptreeindex/internal/baseline"
	"github.com/btreeidx/bptreeindex/internal/index"
)

func main() {
	n := flag.Int("n", 100_000, "number of keys to insert")
	workdir := flag.String("workdir", "", "directory for scratch index/LSM files (default: a fresh temp dir)")
	csvPath := flag.String("csv", "btreebench.csv", "path to write per-operation mean latency and memory as CSV")
	pngPath := flag.String("png", "btreebench.png", "path to write the latency comparison chart")
	cacheSize := flag.Int("cache", 256, "B+tree page cache size, in pages")
	seed := flag.Int64("seed", 1, "PRNG seed for the insert permutation and locate sample")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	dir := *workdir
	if dir == "" {
		var err error
		dir, err = os.MkdirTemp("", "btreebench-*")
		if err != nil {
			logger.Error("create scratch dir", "err", err)
			os.Exit(1)
		}
		defer os.RemoveAll(dir)
	}

	csvFile, err := os.Create(*csvPath)
	if err != nil {
		logger.Error("create csv", "err", err)
		os.Exit(1)
	}
	defer csvFile.Close()
	w := csv.NewWriter(csvFile)
	w.Write([]string{"Structure", "Operation", "LatencyNs", "AllocMB", "HeapObjects"})
	defer w.Flush()

	rng := rand.New(rand.NewSource(*seed))
	keys := rng.Perm(*n)

	logger.Info("running btree suite", "n", *n, "cache_pages", *cacheSize)
	btreeLatency, err := runBTreeSuite(filepath.Join(dir, "btree.idx"), *cacheSize, keys, w, logger)
	if err != nil {
		logger.Error("btree suite", "err", err)
		os.Exit(1)
	}

	logger.Info("running lsm baseline suite", "n", *n)
	lsmLatency, err := runLSMSuite(filepath.Join(dir, "lsm"), keys, w, logger)
	if err != nil {
		logger.Error("lsm suite", "err", err)
		os.Exit(1)
	}

	if err := renderChart(*pngPath, btreeLatency, lsmLatency); err != nil {
		logger.Error("render chart", "err", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s and %s\n", *csvPath, *pngPath)
}

// opLatency holds the mean per-operation latency, in nanoseconds, for one
// structure's run of the workload.
type opLatency struct {
	Insert int64
	Locate int64
	Scan   int64
}

func runBTreeSuite(path string, cacheSize int, keys []int, w *csv.Writer, logger *slog.Logger) (opLatency, error) {
	tree, err := index.OpenFile(path, cacheSize)
	if err != nil {
		return opLatency{}, fmt.Errorf("open index: %w", err)
	}
	defer tree.Close()
	tree.SetLogger(logger)

	start := time.Now()
	for _, k := range keys {
		if err := tree.Insert(index.Key(k), index.RecordID{PageID: int32(k)}); err != nil {
			return opLatency{}, fmt.Errorf("insert %d: %w", k, err)
		}
	}
	insertLatency := time.Since(start).Nanoseconds() / int64(len(keys))
	mem := sampleMem()
	record(w, result{"BTreeIndex", "Insert", insertLatency, mem.AllocMB, mem.HeapObjects})
	logger.Info("btree insert done", "mean_ns", insertLatency)

	const sampleSize = 1000
	start = time.Now()
	for i := 0; i < sampleSize; i++ {
		k := index.Key(keys[i%len(keys)])
		cur, err := tree.Locate(k)
		if err != nil {
			return opLatency{}, fmt.Errorf("locate %d: %w", k, err)
		}
		if _, _, err := tree.ReadForward(&cur); err != nil {
			return opLatency{}, fmt.Errorf("read_forward after locate %d: %w", k, err)
		}
	}
	locateLatency := time.Since(start).Nanoseconds() / sampleSize
	mem = sampleMem()
	record(w, result{"BTreeIndex", "Locate", locateLatency, mem.AllocMB, mem.HeapObjects})

	start = time.Now()
	cur, err := tree.LocateFirst()
	if err != nil {
		return opLatency{}, fmt.Errorf("locate_first: %w", err)
	}
	scanned := 0
	for {
		if _, _, err := tree.ReadForward(&cur); err != nil {
			break
		}
		scanned++
	}
	scanLatency := time.Since(start).Nanoseconds() / int64(max(scanned, 1))
	mem = sampleMem()
	record(w, result{"BTreeIndex", "Scan", scanLatency, mem.AllocMB, mem.HeapObjects})
	logger.Info("btree scan done", "entries", scanned)

	return opLatency{Insert: insertLatency, Locate: locateLatency, Scan: scanLatency}, nil
}

func runLSMSuite(dir string, keys []int, w *csv.Writer, logger *slog.Logger) (opLatency, error) {
	lsm, err := baseline.Open(dir)
	if err != nil {
		return opLatency{}, fmt.Errorf("open lsm: %w", err)
	}
	defer lsm.Close()

	val := []byte{0xAB}

	start := time.Now()
	for _, k := range keys {
		if err := lsm.Insert(int32(k), val); err != nil {
			return opLatency{}, fmt.Errorf("insert %d: %w", k, err)
		}
	}
	insertLatency := time.Since(start).Nanoseconds() / int64(len(keys))
	mem := sampleMem()
	record(w, result{"PebbleLSM", "Insert", insertLatency, mem.AllocMB, mem.HeapObjects})
	logger.Info("lsm insert done", "mean_ns", insertLatency)

	const sampleSize = 1000
	start = time.Now()
	for i := 0; i < sampleSize; i++ {
		k := int32(keys[i%len(keys)])
		if _, err := lsm.Get(k); err != nil {
			return opLatency{}, fmt.Errorf("get %d: %w", k, err)
		}
	}
	locateLatency := time.Since(start).Nanoseconds() / sampleSize
	mem = sampleMem()
	record(w, result{"PebbleLSM", "Locate", locateLatency, mem.AllocMB, mem.HeapObjects})

	start = time.Now()
	scanned := 0
	if err := lsm.Scan(0, int32(len(keys)), func(int32, []byte) bool {
		scanned++
		return true
	}); err != nil {
		return opLatency{}, fmt.Errorf("scan: %w", err)
	}
	scanLatency := time.Since(start).Nanoseconds() / int64(max(scanned, 1))
	mem = sampleMem()
	record(w, result{"PebbleLSM", "Scan", scanLatency, mem.AllocMB, mem.HeapObjects})
	logger.Info("lsm scan done", "entries", scanned)

	return opLatency{Insert: insertLatency, Locate: locateLatency, Scan: scanLatency}, nil
}
