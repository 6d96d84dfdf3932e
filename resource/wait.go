package resource

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WaitAll waits for every promise and returns their values in order. The first
// rejection cancels the remaining waits.
func WaitAll(ctx context.Context, promises ...*Promise) ([]any, error) {
	values := make([]any, len(promises))
	group, groupCtx := errgroup.WithContext(ctx)
	for idx, promise := range promises {
		if promise == nil {
			continue
		}
		group.Go(func() error {
			value, err := promise.Wait(groupCtx)
			if err != nil {
				return err
			}
			values[idx] = value
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return values, nil
}
