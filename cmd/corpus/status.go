package main

import (
	"fmt"

	"github.com/fwojciec/corpus"
)

// Run executes the status command.
func (c *StatusCmd) Run(deps *Dependencies) error {
	ds, err := deps.Checkpoint.Load(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", corpus.ErrorMessage(err))
		return err
	}

	stats := ds.Stats(true)
	fmt.Fprintf(deps.Stdout, "rows:         %d\n", stats.Total)
	fmt.Fprintf(deps.Stdout, "with content: %d\n", stats.WithContent)
	fmt.Fprintf(deps.Stdout, "transformed:  %d\n", stats.Done)
	fmt.Fprintf(deps.Stdout, "failed:       %d\n", stats.Failed)
	fmt.Fprintf(deps.Stdout, "pending:      %d (%d without content)\n", stats.Pending, ds.Stats(false).Pending)

	if deps.StatusCounter != nil {
		counts, err := deps.StatusCounter.CountByStatus(deps.Ctx)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
			return err
		}
		fmt.Fprintf(deps.Stdout, "stored:       %d pending, %d done, %d failed\n",
			counts[corpus.StatusPending], counts[corpus.StatusDone], counts[corpus.StatusFailed])
	}
	return nil
}
