package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rpgm-translator/internal/edit"
	"rpgm-translator/internal/input"
	"rpgm-translator/internal/job"
	"rpgm-translator/internal/lang"
	"rpgm-translator/internal/tui"
)

type RunOptions struct {
	Options
	Input          string
	SourceLanguage string
	TargetLanguage string
	Edit           bool
}

// runEditor is swapped out in tests.
var runEditor = tui.RunEditor

// RunTranslate uploads a game, translates it, follows progress to the end and
// downloads the result, optionally after an interactive edit session.
func RunTranslate(ctx context.Context, opts RunOptions) error {
	rt, err := openRuntime(opts.Options)
	if err != nil {
		return err
	}
	defer rt.Close()

	src, tgt, err := lang.Validate(
		firstNonBlank(opts.SourceLanguage, rt.cfg.Run.SourceLanguage),
		firstNonBlank(opts.TargetLanguage, rt.cfg.Run.TargetLanguage),
	)
	if err != nil {
		return err
	}
	upload, err := input.Resolve(opts.Input)
	if err != nil {
		return err
	}
	if len(upload.Files) > 0 {
		rt.log.Info(fmt.Sprintf("packed %d data files from %s", len(upload.Files), upload.Path))
	}
	rt.log.Info(fmt.Sprintf("uploading %s (%s) to %s", upload.Filename, humanBytes(len(upload.Content)), rt.api.BaseURL()))
	startAll := time.Now()

	m := job.NewMachine(rt.svc, rt.poll)
	m.OnChange(newReporter(rt.log).update)
	defer m.Stop()

	if err := m.Upload(ctx, upload.Filename, upload.Content); err != nil {
		return err
	}
	rt.log.Info(fmt.Sprintf("translating %s -> %s", src, tgt))
	if err := m.Translate(ctx, src, tgt); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if msg := m.Snapshot().ErrorMessage; msg != "" {
			return errors.New(msg)
		}
		return err
	}
	j, err := m.Wait(ctx)
	if err != nil {
		return err
	}
	if j.Phase != job.PhaseCompleted {
		return fmt.Errorf("job %s failed: %s", j.ID, j.ErrorMessage)
	}
	rt.log.Info(fmt.Sprintf("translation finished in %s", humanDurationShort(time.Since(startAll))))

	if opts.Edit {
		if _, err := rt.editCompleted(ctx, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			rt.log.Info(fmt.Sprintf("%s %v; keeping the unedited result", failLabel.Render("edit"), err))
		}
	}
	final := m.Snapshot()
	_, err = rt.download(ctx, final.ID, final.DownloadRef, tgt)
	return err
}

// editCompleted runs one edit session against a completed job and returns the
// saved download reference, or "" when the session closed without saving.
// The service may hand back the same reference it gave before the edit.
func (rt *runtime) editCompleted(ctx context.Context, m *job.Machine) (string, error) {
	jobID, err := m.RequestEdit()
	if err != nil {
		return "", err
	}
	session, err := edit.NewReconciler(rt.svc, m).Open(ctx, jobID)
	if err != nil {
		return "", err
	}
	defer session.Close()
	rt.log.Event("edit_opened", map[string]any{"job_id": jobID, "session_id": session.ID(), "editable": session.Len(), "entries": session.Total()})
	ref, err := runEditor(ctx, session)
	if err != nil {
		return "", err
	}
	if ref == "" {
		rt.log.Info("edit closed without saving")
		return "", nil
	}
	rt.log.Info(fmt.Sprintf("%s edits, new download=%s", okLabel.Render("saved"), ref))
	return ref, nil
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
