package client

import "rpgm-translator/internal/logentry"

type UploadResp struct {
	JobID    string `json:"job_id"`
	Message  string `json:"message,omitempty"`
	FilePath string `json:"file_path,omitempty"`
}

type TranslateReq struct {
	JobID          string `json:"job_id"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
}

type TranslateResp struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type StatusResp struct {
	Status            string       `json:"status"`
	CurrentFile       int          `json:"current_file"`
	TotalFiles        int          `json:"total_files"`
	Logs              logentry.Log `json:"logs"`
	DownloadURL       string       `json:"download_url,omitempty"`
	Message           string       `json:"message,omitempty"`
	Error             string       `json:"error,omitempty"`
	TotalTranslations int          `json:"total_translations,omitempty"`
	ZipFilename       string       `json:"zip_filename,omitempty"`
}

type EditableDataResp struct {
	Logs logentry.Log `json:"logs"`
}

type EditReq struct {
	Logs logentry.Log `json:"logs"`
}

type EditResp struct {
	Message     string `json:"message,omitempty"`
	DownloadURL string `json:"download_url"`
	Error       string `json:"error,omitempty"`
}

// Artifact is a downloaded translation archive.
type Artifact struct {
	Filename string
	Data     []byte
	SHA256   string
}
