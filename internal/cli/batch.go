package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/bootstrap"
	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/pkg/jobs"
)

type schoolGenerator interface {
	GenerateWholeSchool(ctx context.Context, req dto.GenerateSchoolRequest) (*dto.GenerationResult, error)
}

type batchOptions struct {
	Scope      dto.GenerationScope
	Regenerate bool
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

type batchOutcome struct {
	SchoolID string
	Result   *dto.GenerationResult
	Err      error
}

// runBatch generates every school through the job queue and returns one outcome per school, sorted by id.
func runBatch(ctx context.Context, gen schoolGenerator, schoolIDs []string, opts batchOptions, logger *zap.Logger) ([]batchOutcome, error) {
	if len(schoolIDs) == 0 {
		return nil, nil
	}

	// done has one slot per school so OnDone never blocks a worker.
	var (
		mu      sync.Mutex
		results = make(map[string]*dto.GenerationResult, len(schoolIDs))
		done    = make(chan batchOutcome, len(schoolIDs))
	)

	handler := func(ctx context.Context, job jobs.Job) error {
		schoolID := job.Payload.(string)
		result, err := gen.GenerateWholeSchool(ctx, dto.GenerateSchoolRequest{
			SchoolID:   schoolID,
			Scope:      opts.Scope,
			Regenerate: opts.Regenerate,
		})
		if err != nil {
			return err
		}
		mu.Lock()
		results[schoolID] = result
		mu.Unlock()
		return nil
	}

	queue := jobs.NewQueue("timetable-batch", handler, jobs.QueueConfig{
		Workers:    opts.Workers,
		BufferSize: len(schoolIDs),
		MaxRetries: opts.MaxRetries,
		RetryDelay: opts.RetryDelay,
		Logger:     logger,
		OnDone: func(job jobs.Job, err error) {
			schoolID := job.Payload.(string)
			mu.Lock()
			result := results[schoolID]
			mu.Unlock()
			done <- batchOutcome{SchoolID: schoolID, Result: result, Err: err}
		},
	})

	queue.Start(ctx)
	defer queue.Stop()

	for _, schoolID := range schoolIDs {
		if err := queue.Enqueue(jobs.Job{ID: schoolID, Type: "generate_school", Payload: schoolID}); err != nil {
			return nil, fmt.Errorf("enqueue %s: %w", schoolID, err)
		}
	}

	outcomes := make([]batchOutcome, 0, len(schoolIDs))
	for len(outcomes) < len(schoolIDs) {
		select {
		case outcome := <-done:
			outcomes = append(outcomes, outcome)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].SchoolID < outcomes[j].SchoolID })
	return outcomes, nil
}

// GenerateAllCmd generates every school in parallel.
func GenerateAllCmd() *cobra.Command {
	var (
		scope      string
		regenerate bool
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "generate-all",
		Short: "Generate every school with a worker pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				schools, err := app.Timetable.ListSchools(ctx)
				if err != nil {
					return err
				}
				ids := make([]string, 0, len(schools))
				for _, school := range schools {
					ids = append(ids, school.ID)
				}

				opts := batchOptions{
					Scope:      dto.GenerationScope(strings.ToUpper(scope)),
					Regenerate: regenerate,
					Workers:    app.Config.Batch.Workers,
					MaxRetries: app.Config.Batch.MaxRetries,
					RetryDelay: app.Config.Batch.RetryDelay,
				}
				if workers > 0 {
					opts.Workers = workers
				}

				outcomes, err := runBatch(ctx, app.Timetable, ids, opts, app.Logger)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				failed := 0
				for _, outcome := range outcomes {
					if outcome.Err != nil {
						failed++
						fmt.Fprintf(out, "%s %s: %v\n", failLabel("ERROR"), outcome.SchoolID, outcome.Err)
						continue
					}
					printResult(out, outcome.SchoolID, outcome.Result)
				}
				fmt.Fprintf(out, "%d schools, %d failed\n", len(outcomes), failed)
				if failed > 0 {
					return fmt.Errorf("%d schools failed", failed)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&scope, "scope", string(dto.ScopeBoth), "ALL_CLASSES, ALL_TEACHERS or BOTH")
	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "delete existing entries before generating")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel schools, defaults to BATCH_WORKERS")
	return cmd
}
