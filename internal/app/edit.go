package app

import (
	"context"
	"fmt"
	"strings"

	"rpgm-translator/internal/job"
)

type EditOptions struct {
	Options
	JobID          string
	TargetLanguage string
}

// RunEdit opens an edit session on a completed job and downloads the edited
// artifact if the session was saved.
func RunEdit(ctx context.Context, opts EditOptions) error {
	jobID := strings.TrimSpace(opts.JobID)
	if jobID == "" {
		return fmt.Errorf("job id is required")
	}
	rt, err := openRuntime(opts.Options)
	if err != nil {
		return err
	}
	defer rt.Close()

	m := job.NewMachine(rt.svc, rt.poll)
	defer m.Stop()
	if err := m.Track(ctx, jobID); err != nil {
		return err
	}
	j, err := m.Wait(ctx)
	if err != nil {
		return err
	}
	switch j.Phase {
	case job.PhaseCompleted:
	case job.PhaseFailed:
		return fmt.Errorf("job %s cannot be edited: %s", jobID, j.ErrorMessage)
	default:
		return fmt.Errorf("job %s is not completed", jobID)
	}
	saved, err := rt.editCompleted(ctx, m)
	if err != nil {
		return err
	}
	if saved == "" {
		return nil
	}
	after := m.Snapshot()
	_, err = rt.download(ctx, after.ID, firstNonBlank(after.DownloadRef, saved), opts.TargetLanguage)
	return err
}
