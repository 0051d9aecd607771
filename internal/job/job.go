package job

import "rpgm-translator/internal/logentry"

type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseUploaded    Phase = "uploaded"
	PhaseTranslating Phase = "translating"
	PhaseCompleted   Phase = "completed"
	PhaseFailed      Phase = "failed"
)

// Job is a snapshot of one upload-through-download unit of work.
// DownloadRef is set only while Phase is PhaseCompleted, ErrorMessage only while PhaseFailed.
type Job struct {
	ID             string
	Phase          Phase
	Progress       float64
	CurrentFile    int
	TotalFiles     int
	Entries        []logentry.Entry
	DownloadRef    string
	ErrorMessage   string
	SourceLanguage string
	TargetLanguage string
}

func (j Job) Terminal() bool {
	return j.Phase == PhaseCompleted || j.Phase == PhaseFailed
}

func (j Job) clone() Job {
	out := j
	if j.Entries != nil {
		out.Entries = append([]logentry.Entry(nil), j.Entries...)
	}
	return out
}

type SampleStatus string

const (
	SampleInProgress SampleStatus = "in_progress"
	SampleCompleted  SampleStatus = "completed"
	SampleError      SampleStatus = "error"
)

// Sample is one status observation. Log is the full cumulative log, not a delta.
type Sample struct {
	Status      SampleStatus
	CurrentFile int
	TotalFiles  int
	Log         []logentry.Entry
	DownloadRef string
	Message     string
}

func (s Sample) Terminal() bool {
	return s.Status == SampleCompleted || s.Status == SampleError
}

// Progress is current/total in [0,1], or 0 when the total is unknown.
func (s Sample) Progress() float64 {
	return Progress(s.CurrentFile, s.TotalFiles)
}

func Progress(current, total int) float64 {
	if total <= 0 || current <= 0 {
		return 0
	}
	if current >= total {
		return 1
	}
	return float64(current) / float64(total)
}
