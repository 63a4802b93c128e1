package app

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Step is one stage of the demo sequence.
type Step struct {
	Name  string
	Title string
	Run   func(ctx context.Context) (string, error)
}

// StepResult is the outcome of running a Step.
type StepResult struct {
	Name     string
	Title    string
	Detail   string
	Err      error
	Duration time.Duration
}

// OK reports whether the step succeeded.
func (r StepResult) OK() bool {
	return r.Err == nil
}

// DemoSteps returns connect, create, seed, update and delete in order.
func DemoSteps(svc *Service) []Step {
	return []Step{
		{
			Name:  "connect",
			Title: "Connection test",
			Run: func(ctx context.Context) (string, error) {
				if err := svc.Ping(ctx); err != nil {
					return "", err
				}
				return "connected to " + svc.Descriptor().DisplayString(), nil
			},
		},
		{
			Name:  "create",
			Title: "Create devin_test table",
			Run: func(ctx context.Context) (string, error) {
				return "table ready", svc.CreateTable(ctx)
			},
		},
		{
			Name:  "seed",
			Title: "Insert seed rows",
			Run: func(ctx context.Context) (string, error) {
				report, err := svc.SeedRows(ctx)
				return fmt.Sprintf("inserted %s, skipped %s", formatIDs(report.Inserted), formatIDs(report.Skipped)), err
			},
		},
		{
			Name:  "update",
			Title: fmt.Sprintf("Update row id=%d", DemoUpdateID),
			Run: func(ctx context.Context) (string, error) {
				n, err := svc.UpdateRow(ctx, DemoUpdateID, DemoUpdateData)
				return fmt.Sprintf("%d row(s) updated", n), err
			},
		},
		{
			Name:  "delete",
			Title: fmt.Sprintf("Delete row id=%d", DemoDeleteID),
			Run: func(ctx context.Context) (string, error) {
				n, err := svc.DeleteRow(ctx, DemoDeleteID)
				return fmt.Sprintf("%d row(s) deleted", n), err
			},
		},
	}
}

// RunStep runs a single step and times it.
func RunStep(ctx context.Context, step Step) StepResult {
	start := time.Now()
	detail, err := step.Run(ctx)
	return StepResult{
		Name:     step.Name,
		Title:    step.Title,
		Detail:   detail,
		Err:      err,
		Duration: time.Since(start),
	}
}

// RunSteps runs steps in order and stops at the first failure. observe, when
// not nil, is called after every step. The error of the failed step is
// returned.
func RunSteps(ctx context.Context, steps []Step, observe func(StepResult)) ([]StepResult, error) {
	results := make([]StepResult, 0, len(steps))
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res := RunStep(ctx, step)
		results = append(results, res)
		if observe != nil {
			observe(res)
		}
		if !res.OK() {
			return results, fmt.Errorf("%s: %w", step.Name, res.Err)
		}
	}
	return results, nil
}

func formatIDs(ids []int64) string {
	if len(ids) == 0 {
		return "none"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ",")
}
