package apply

import (
	"context"
	"path/filepath"

	"github.com/harrison/templatize/internal/transform"
)

// planAll plans files on a bounded worker pool and returns one channel per
// file so results can be consumed in input order. At most 2*workers plans
// are outstanding; consumers call release after taking each result.
func planAll(ctx context.Context, eng *transform.Engine, root string, files []string, opts Options) (results []chan filePlan, release func()) {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	results = make([]chan filePlan, len(files))
	for i := range results {
		results[i] = make(chan filePlan, 1)
	}

	window := make(chan struct{}, 2*workers)
	jobs := make(chan int)

	go func() {
		defer close(jobs)
		for i := range files {
			select {
			case window <- struct{}{}:
			case <-ctx.Done():
				return
			}
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	for w := 0; w < workers; w++ {
		go func() {
			for i := range jobs {
				abs := filepath.Join(root, filepath.FromSlash(files[i]))
				results[i] <- planFile(eng, abs, files[i], opts)
			}
		}()
	}

	return results, func() { <-window }
}
