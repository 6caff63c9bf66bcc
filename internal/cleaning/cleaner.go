package cleaning

import (
	"log"
	"runtime"
	"sync"
	"sync/atomic"
)

// BatchResult reports the outcome of cleaning one batch. Received always
// equals Cleaned + Excluded so that before/after row counts stay auditable.
type BatchResult struct {
	Records  []CleanOutcomeRecord `json:"records,omitempty"`
	Received int                  `json:"records_received"`
	Cleaned  int                  `json:"records_cleaned"`
	Excluded int                  `json:"records_excluded"`
}

// Cleaner applies the record projection to batches of raw records. Records
// are independent, so the batch is fanned out across a fixed pool of
// workers; results come back in input order regardless of the worker count.
type Cleaner struct {
	workers int
}

// NewCleaner creates a Cleaner with the given worker count. A count below 1
// falls back to GOMAXPROCS.
func NewCleaner(workers int) *Cleaner {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Cleaner{workers: workers}
}

// CleanBatch cleans every record in the batch. Records violating the
// usability invariant are excluded from the output; each exclusion is logged
// and counted rather than failing the batch.
func (c *Cleaner) CleanBatch(raw []RawOutcomeRecord) BatchResult {
	result := BatchResult{Received: len(raw)}
	if len(raw) == 0 {
		result.Records = []CleanOutcomeRecord{}
		return result
	}

	cleaned := make([]*CleanOutcomeRecord, len(raw))
	var excluded int64

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < c.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				rec, err := Clean(raw[i])
				if err != nil {
					log.Printf("Excluding record #%d: %v", i+1, err)
					atomic.AddInt64(&excluded, 1)
					continue
				}
				cleaned[i] = &rec
			}
		}()
	}
	for i := range raw {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	// Compact in input order so the output is deterministic.
	result.Records = make([]CleanOutcomeRecord, 0, len(raw))
	for _, rec := range cleaned {
		if rec != nil {
			result.Records = append(result.Records, *rec)
		}
	}
	result.Cleaned = len(result.Records)
	result.Excluded = int(excluded)

	if result.Excluded > 0 {
		log.Printf("Cleaned batch: %d received, %d cleaned, %d excluded", result.Received, result.Cleaned, result.Excluded)
	}
	return result
}
