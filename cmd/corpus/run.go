package main

import (
	"fmt"

	"github.com/fwojciec/corpus"
	"github.com/fwojciec/corpus/pipeline"
)

// Run executes the run command.
func (c *RunCmd) Run(deps *Dependencies) error {
	ds, err := deps.Checkpoint.Load(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", corpus.ErrorMessage(err))
		return err
	}

	var bytes int
	deps.Runner.Progress = func(event pipeline.ProgressEvent) {
		switch event.Type {
		case pipeline.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "  %d of %d rows pending (%d batches)\n", event.Total, ds.Len(), event.Batches)
		case pipeline.ProgressRecord:
			res := event.Result
			bytes += res.Bytes
			switch res.Outcome {
			case corpus.OutcomeSkipNoContent, corpus.OutcomeSkipExtractionEmpty, corpus.OutcomeTransformFailed:
				if res.Err != nil {
					fmt.Fprintf(deps.Stderr, "  %s %s: %v\n", res.Outcome, pipeline.TruncateURL(res.Record.URL, 60), res.Err)
				} else {
					fmt.Fprintf(deps.Stderr, "  %s %s\n", res.Outcome, pipeline.TruncateURL(res.Record.URL, 60))
				}
			}
		case pipeline.ProgressBatch:
			fmt.Fprintf(deps.Stdout, "  batch %d/%d saved (%d/%d rows, %s read)\n",
				event.Batch, event.Batches, event.Completed, event.Total, pipeline.FormatBytes(bytes))
		}
	}

	summary, err := deps.Runner.Run(deps.Ctx, ds)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}

	fmt.Fprintf(deps.Stdout, "  %s\n", summary)
	if summary.Interrupted {
		fmt.Fprintf(deps.Stderr, "Interrupted. Progress saved; run again to resume.\n")
		return nil
	}
	fmt.Fprintf(deps.Stdout, "  Wrote %s\n", c.OutputPath())
	return nil
}
