package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jask/flowforms/internal/database/repository"
	"github.com/jask/flowforms/internal/logging"
	"github.com/jask/flowforms/internal/metrics"
)

// Journal records every attempt in the submission journal before handing the
// event to Next. Journal write failures are logged, never surfaced.
type Journal struct {
	Next        Submitter
	Submissions *repository.SubmissionRepo
	Log         *logging.Logger
}

func (j *Journal) SubmitEvent(ctx context.Context, ev Event) error {
	id := uuid.NewString()
	ctx = j.Log.WithFields(ctx, map[string]any{"submission_id": id, "widget": ev.Widget, "flow_id": ev.FlowID})

	payload, err := json.Marshal(ev.FormData)
	if err != nil {
		return fmt.Errorf("encode form data: %w", err)
	}
	if err := j.Submissions.Insert(ctx, repository.Submission{
		ID:      id,
		Widget:  ev.Widget,
		FlowID:  ev.FlowID,
		Payload: string(payload),
	}); err != nil {
		j.Log.Error(ctx, "journal insert failed", err)
	}

	submitErr := j.Next.SubmitEvent(ctx, ev)
	if submitErr != nil {
		j.Log.Error(ctx, "flow event rejected", submitErr)
	} else {
		j.Log.Info(ctx, "flow event accepted")
	}

	if err := j.Submissions.Finish(ctx, id, submitErr); err != nil {
		j.Log.Error(ctx, "journal finish failed", err)
	}
	return submitErr
}

// Instrumented observes duration and outcome of every submission.
type Instrumented struct {
	Next    Submitter
	Metrics *metrics.SubmissionMetrics
}

func (s *Instrumented) SubmitEvent(ctx context.Context, ev Event) error {
	start := time.Now()
	err := s.Next.SubmitEvent(ctx, ev)
	s.Metrics.Observe(ev.Widget, time.Since(start), err)
	return err
}
