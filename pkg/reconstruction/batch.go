package reconstruction

import (
	"fmt"

	"holoscope/internal/models"
)

// Pair is one sample exposure with its reference exposure
type Pair struct {
	Sample    *models.Frame
	Reference *models.Frame
}

// ProcessBatch reconstructs every pair, running up to NumCores pairs at once.
// Results are returned in input order. The first failure, in input order, is
// returned wrapped with the index of its pair.
func (r *Reconstructor) ProcessBatch(pairs []Pair) ([]*Result, error) {
	results := make([]*Result, len(pairs))
	if len(pairs) == 0 {
		return results, nil
	}

	workers := r.params.NumCores
	if workers < 1 {
		workers = 1
	}
	if workers > len(pairs) {
		workers = len(pairs)
	}

	type processingResult struct {
		index  int
		result *Result
		err    error
	}
	jobs := make(chan int)
	resultChan := make(chan processingResult)

	for w := 0; w < workers; w++ {
		go func() {
			for i := range jobs {
				res, err := r.Process(pairs[i].Sample, pairs[i].Reference)
				resultChan <- processingResult{index: i, result: res, err: err}
			}
		}()
	}
	go func() {
		for i := range pairs {
			jobs <- i
		}
		close(jobs)
	}()

	errs := make([]error, len(pairs))
	for completed := 0; completed < len(pairs); completed++ {
		res := <-resultChan
		results[res.index] = res.result
		errs[res.index] = res.err
		r.logf("Processed pair %d/%d\n", completed+1, len(pairs))
	}

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("pair %d: %w", i, err)
		}
	}
	return results, nil
}
