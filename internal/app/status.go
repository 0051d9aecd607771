package app

import (
	"context"
	"fmt"
	"strings"

	"rpgm-translator/internal/job"
	"rpgm-translator/internal/transcript"
)

type StatusOptions struct {
	Options
	JobID string
	// Watch keeps polling until the job reaches a terminal state.
	Watch bool
	// Download fetches the artifact when the job is completed.
	Download bool
}

// RunStatus reports on a job started elsewhere.
func RunStatus(ctx context.Context, opts StatusOptions) error {
	jobID := strings.TrimSpace(opts.JobID)
	if jobID == "" {
		return fmt.Errorf("job id is required")
	}
	rt, err := openRuntime(opts.Options)
	if err != nil {
		return err
	}
	defer rt.Close()

	var j job.Job
	if opts.Watch {
		m := job.NewMachine(rt.svc, rt.poll)
		m.OnChange(newReporter(rt.log).update)
		defer m.Stop()
		if err := m.Track(ctx, jobID); err != nil {
			return err
		}
		if j, err = m.Wait(ctx); err != nil {
			return err
		}
	} else {
		s, err := rt.svc.Status(ctx, jobID)
		if err != nil {
			return fmt.Errorf("failed to get translation status: %w", err)
		}
		j = jobFromSample(jobID, s)
		rt.log.Block(transcript.Format(j.Entries))
		rt.log.Info(statusLine(j))
	}
	if j.Phase == job.PhaseFailed {
		return fmt.Errorf("job %s failed: %s", j.ID, j.ErrorMessage)
	}
	if opts.Download && j.Phase == job.PhaseCompleted {
		_, err := rt.download(ctx, j.ID, j.DownloadRef, "")
		return err
	}
	return nil
}

func jobFromSample(jobID string, s job.Sample) job.Job {
	j := job.Job{
		ID:          jobID,
		Progress:    s.Progress(),
		CurrentFile: s.CurrentFile,
		TotalFiles:  s.TotalFiles,
		Entries:     s.Log,
	}
	switch s.Status {
	case job.SampleCompleted:
		j.Phase = job.PhaseCompleted
		j.Progress = 1
		j.DownloadRef = strings.TrimSpace(s.DownloadRef)
	case job.SampleError:
		j.Phase = job.PhaseFailed
		j.ErrorMessage = firstNonBlank(s.Message, "translation failed")
	default:
		j.Phase = job.PhaseTranslating
	}
	return j
}

func statusLine(j job.Job) string {
	switch j.Phase {
	case job.PhaseCompleted:
		return fmt.Sprintf("%s job_id=%s entries=%d download=%s", okLabel.Render("completed"), j.ID, len(j.Entries), j.DownloadRef)
	case job.PhaseFailed:
		return fmt.Sprintf("%s job_id=%s %s", failLabel.Render("failed"), j.ID, j.ErrorMessage)
	default:
		return fmt.Sprintf("%s job_id=%s", progressLine(j), j.ID)
	}
}
