package app

import (
	"context"
	"errors"
	"strings"

	"rpgm-translator/internal/client"
	"rpgm-translator/internal/job"
	"rpgm-translator/internal/logentry"
)

// service binds the HTTP client to the job lifecycle and the edit reconciler.
type service struct {
	api *client.API
}

func newService(api *client.API) *service {
	return &service{api: api}
}

func (s *service) Upload(ctx context.Context, filename string, content []byte) (string, error) {
	resp, err := s.api.Upload(ctx, filename, content)
	if err != nil {
		return "", err
	}
	return resp.JobID, nil
}

func (s *service) Translate(ctx context.Context, jobID, sourceLang, targetLang string) error {
	_, err := s.api.Translate(ctx, client.TranslateReq{
		JobID:          jobID,
		SourceLanguage: sourceLang,
		TargetLanguage: targetLang,
	})
	return asRejection(err)
}

func (s *service) Status(ctx context.Context, jobID string) (job.Sample, error) {
	resp, err := s.api.Status(ctx, jobID)
	if err != nil {
		return job.Sample{}, err
	}
	return sampleFromStatus(resp), nil
}

func (s *service) EditableData(ctx context.Context, jobID string) ([]logentry.Entry, error) {
	resp, err := s.api.EditableData(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return resp.Logs, nil
}

func (s *service) SubmitEdits(ctx context.Context, jobID string, entries []logentry.Entry) (string, error) {
	resp, err := s.api.SubmitEdits(ctx, jobID, client.EditReq{Logs: entries})
	if err != nil {
		return "", err
	}
	return resp.DownloadURL, nil
}

// asRejection turns a service refusal into a job.Rejection so its message is
// shown verbatim; transport failures pass through unchanged.
func asRejection(err error) error {
	var se *client.StatusError
	if errors.As(err, &se) {
		return &job.Rejection{Message: se.Message}
	}
	return err
}

func sampleFromStatus(resp client.StatusResp) job.Sample {
	s := job.Sample{
		CurrentFile: resp.CurrentFile,
		TotalFiles:  resp.TotalFiles,
		Log:         resp.Logs,
		DownloadRef: resp.DownloadURL,
		Message:     resp.Message,
	}
	switch strings.ToLower(strings.TrimSpace(resp.Status)) {
	case "completed":
		s.Status = job.SampleCompleted
	case "error":
		s.Status = job.SampleError
		if strings.TrimSpace(s.Message) == "" {
			s.Message = resp.Error
		}
	case "not_found":
		s.Status = job.SampleError
		s.Message = "job not found"
	default:
		s.Status = job.SampleInProgress
	}
	return s
}
