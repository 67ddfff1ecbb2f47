package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	"docregistry/pkg/platform/sentinel"
)

// ConcurrentResult tallies the outcomes of RunConcurrent.
type ConcurrentResult struct {
	Successes  int32
	Duplicates int32
	NotFounds  int32
	Errors     int32
}

func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Duplicates + r.NotFounds + r.Errors
}

// RunConcurrent starts all goroutines behind a shared gate so they race as
// closely as possible, then classifies each returned error by store sentinel.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var (
		wg                                  sync.WaitGroup
		successes, dupes, notFounds, others atomic.Int32
		gate                                = make(chan struct{})
	)

	for i := range goroutines {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-gate
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				dupes.Add(1)
			case errors.Is(err, sentinel.ErrNotFound):
				notFounds.Add(1)
			default:
				others.Add(1)
			}
		}(i)
	}
	close(gate)
	wg.Wait()

	return &ConcurrentResult{
		Successes:  successes.Load(),
		Duplicates: dupes.Load(),
		NotFounds:  notFounds.Load(),
		Errors:     others.Load(),
	}
}
