package history

import (
	"context"
	"sync"

	"github.com/maxbolgarin/errm"
	"github.com/panjf2000/ants/v2"

	"github.com/masmgr/filehistory-go/internal/git"
)

// DefaultWorkers is the pool size used by BuildAll when workers <= 0.
const DefaultWorkers = 4

// BuildAll builds the histories of several resources of one repository on a
// pool of workers. Histories are returned in input order. The repository is
// shared by all workers and must support concurrent reads.
func BuildAll(ctx context.Context, repo git.Repository, resources []string, flags Flags, opts Options, workers int) ([]*FileHistory, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, errm.Wrap(err, "failed to create ants pool")
	}
	defer pool.Release()

	out := make([]*FileHistory, len(resources))
	var wg sync.WaitGroup

	for i, resource := range resources {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			out[i] = Build(ctx, repo, resource, flags, opts)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, errm.Wrap(err, "submit "+resource)
		}
	}

	wg.Wait()
	return out, nil
}
