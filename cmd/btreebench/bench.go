package main

import (
	"encoding/csv"
	"runtime"
	"strconv"
)

// result is one measured row: which structure, what operation, and the
// latency and memory footprint observed.
type result struct {
	Structure string
	Operation string
	LatencyNs int64
	AllocMB   uint64
	Objects   uint64
}

type memStats struct {
	AllocMB     uint64
	HeapObjects uint64
}

// sampleMem forces a GC so the sample reflects live data, not garbage.
func sampleMem() memStats {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	return memStats{AllocMB: m.Alloc / 1024 / 1024, HeapObjects: m.HeapObjects}
}

func record(w *csv.Writer, r result) {
	w.Write([]string{
		r.Structure,
		r.Operation,
		strconv.FormatInt(r.LatencyNs, 10),
		strconv.FormatUint(r.AllocMB, 10),
		strconv.FormatUint(r.Objects, 10),
	})
}
