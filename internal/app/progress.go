package app

import (
	"fmt"
	"math"

	"rpgm-translator/internal/job"
	"rpgm-translator/internal/transcript"
)

// reporter turns job snapshots into log output. Snapshots arrive one at a time
// from the machine, so it needs no locking of its own.
type reporter struct {
	log       *Logger
	shown     string
	phase     job.Phase
	current   int
	total     int
	announced bool
}

func newReporter(log *Logger) *reporter {
	return &reporter{log: log}
}

func (r *reporter) update(j job.Job) {
	if len(j.Entries) > 0 {
		r.printTranscript(transcript.Format(j.Entries))
	}
	if j.Phase == job.PhaseTranslating && (j.CurrentFile != r.current || j.TotalFiles != r.total || !r.announced) {
		r.current, r.total, r.announced = j.CurrentFile, j.TotalFiles, true
		r.log.Info(progressLine(j))
		r.log.Event("progress", map[string]any{
			"job_id":       j.ID,
			"current_file": j.CurrentFile,
			"total_files":  j.TotalFiles,
			"progress":     j.Progress,
		})
	}
	if j.Phase == r.phase {
		return
	}
	r.phase = j.Phase
	switch j.Phase {
	case job.PhaseUploaded:
		r.shown = ""
		r.announced = false
		r.log.Info(fmt.Sprintf("%s job_id=%s", infoLabel.Render("uploaded"), j.ID))
	case job.PhaseCompleted:
		r.log.Info(fmt.Sprintf("%s job_id=%s download=%s", okLabel.Render("completed"), j.ID, j.DownloadRef))
	case job.PhaseFailed:
		r.log.Info(fmt.Sprintf("%s %s", failLabel.Render("failed"), j.ErrorMessage))
	}
}

func (r *reporter) printTranscript(text string) {
	suffix, reset := transcript.Tail(r.shown, text)
	r.shown = text
	if reset {
		r.log.Block(text)
		return
	}
	r.log.Block(suffix)
}

func progressLine(j job.Job) string {
	pct := int(math.Floor(j.Progress * 100))
	if j.TotalFiles <= 0 {
		return fmt.Sprintf("%s [%d/?]", infoLabel.Render("translating"), j.CurrentFile)
	}
	return fmt.Sprintf("%s [%d/%d] %d%%", infoLabel.Render("translating"), j.CurrentFile, j.TotalFiles, pct)
}
