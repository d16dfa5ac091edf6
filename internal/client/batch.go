package client

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fivetwenty-io/popit/internal/constants"
	"github.com/fivetwenty-io/popit/pkg/popit"
)

// Batch implements popit.Client.Batch. Results are returned in input order;
// one failing operation does not cancel the others.
func (c *Client) Batch(ctx context.Context, operations []popit.Operation, concurrency int) []popit.BatchResult {
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrencyLimit
	}

	results := make([]popit.BatchResult, len(operations))

	var group errgroup.Group

	group.SetLimit(concurrency)

	for index, operation := range operations {
		group.Go(func() error {
			start := time.Now()
			value, err := c.executeOperation(ctx, operation)

			results[index] = popit.BatchResult{
				ID:       operation.ID,
				Value:    value,
				Err:      err,
				Duration: time.Since(start),
			}

			return nil
		})
	}

	_ = group.Wait()

	if c.logger != nil {
		failed := 0

		for _, result := range results {
			if !result.Success() {
				failed++
			}
		}

		c.logger.Debug("Batch completed", map[string]interface{}{
			"operations": len(operations),
			"failed":     failed,
		})
	}

	return results
}

func (c *Client) executeOperation(ctx context.Context, operation popit.Operation) (any, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	resp, err := c.Do(ctx, operation.Method, operation.Path, operation.Options)
	if err != nil {
		return nil, err
	}

	return resp.Value()
}
