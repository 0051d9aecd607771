package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

type TraceEvent struct {
	Stage      string
	Method     string
	URL        string
	StatusCode int
	DurationMs int64
	Request    string
	Response   string
	Error      string
}

// StatusError is an application-level rejection: the service answered, but refused.
type StatusError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Status == "" {
		return e.Message
	}
	if e.Message == "" {
		return e.Status
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

// IsRejection reports whether err is a service rejection rather than a transport failure.
func IsRejection(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

type API struct {
	baseURL string
	http    *http.Client
	trace   func(TraceEvent)
}

const (
	downloadMaxAttempts   = 3
	retryBackoffBase      = 300 * time.Millisecond
	retryBackoffMax       = 4 * time.Second
	connectTimeout        = 10 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	expectContinueTimeout = 1 * time.Second
	keepAliveTimeout      = 30 * time.Second
	idleConnTimeout       = 90 * time.Second
	maxIdleConns          = 100
	maxIdleConnsPerHost   = 10
	maxResponseBytes      = 64 << 20
	maxTraceBytes         = 2 << 20
)

// New builds a client without a total request timeout: a stalled service shows
// up as absent progress, not as an error.
func New(baseURL string) *API {
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: keepAliveTimeout,
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           dialer.DialContext,
				TLSHandshakeTimeout:   tlsHandshakeTimeout,
				ExpectContinueTimeout: expectContinueTimeout,
				IdleConnTimeout:       idleConnTimeout,
				MaxIdleConns:          maxIdleConns,
				MaxIdleConnsPerHost:   maxIdleConnsPerHost,
			},
		},
	}
}

func (a *API) BaseURL() string {
	return a.baseURL
}

func (a *API) SetTrace(fn func(TraceEvent)) {
	a.trace = fn
}

func (a *API) emitTrace(ev TraceEvent) {
	if a.trace != nil {
		a.trace(ev)
	}
}

func readReqBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return ""
	}
	rc, err := req.GetBody()
	if err != nil {
		return ""
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, maxTraceBytes))
	if err != nil {
		return ""
	}
	return traceBody(b)
}

func traceBody(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if utf8.Valid(b) {
		return string(b)
	}
	sum := sha256.Sum256(b)
	return fmt.Sprintf("<binary bytes=%d sha256=%s>", len(b), hex.EncodeToString(sum[:]))
}

// Upload sends the archive as multipart field "file".
func (a *API) Upload(ctx context.Context, filename string, content []byte) (UploadResp, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return UploadResp{}, err
	}
	if _, err := fw.Write(content); err != nil {
		return UploadResp{}, err
	}
	if err := mw.Close(); err != nil {
		return UploadResp{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/upload", body)
	if err != nil {
		return UploadResp{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var out UploadResp
	if err := a.doJSON(req, &out); err != nil {
		return UploadResp{}, err
	}
	if strings.TrimSpace(out.JobID) == "" {
		return UploadResp{}, &StatusError{Message: "upload response has no job_id"}
	}
	return out, nil
}

// Translate starts a translation run. A reply with status "error" is returned as *StatusError.
func (a *API) Translate(ctx context.Context, in TranslateReq) (TranslateResp, error) {
	b, _ := json.Marshal(in)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/translate", bytes.NewReader(b))
	if err != nil {
		return TranslateResp{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	var out TranslateResp
	if err := a.doJSON(req, &out); err != nil {
		return TranslateResp{}, err
	}
	if strings.EqualFold(out.Status, "error") {
		return out, &StatusError{Message: firstNonEmpty(out.Message, out.Error, "translation rejected")}
	}
	return out, nil
}

func (a *API) Status(ctx context.Context, jobID string) (StatusResp, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/status/"+url.PathEscape(jobID), nil)
	if err != nil {
		return StatusResp{}, err
	}
	var out StatusResp
	if err := a.doJSON(req, &out); err != nil {
		return StatusResp{}, err
	}
	return out, nil
}

func (a *API) EditableData(ctx context.Context, jobID string) (EditableDataResp, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/translated_data/"+url.PathEscape(jobID), nil)
	if err != nil {
		return EditableDataResp{}, err
	}
	var out EditableDataResp
	if err := a.doJSON(req, &out); err != nil {
		return EditableDataResp{}, err
	}
	return out, nil
}

func (a *API) SubmitEdits(ctx context.Context, jobID string, in EditReq) (EditResp, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return EditResp{}, fmt.Errorf("encode edits: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/edit/"+url.PathEscape(jobID), bytes.NewReader(b))
	if err != nil {
		return EditResp{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	var out EditResp
	if err := a.doJSON(req, &out); err != nil {
		return EditResp{}, err
	}
	if strings.TrimSpace(out.DownloadURL) == "" {
		return out, &StatusError{Message: firstNonEmpty(out.Error, "edit response has no download_url")}
	}
	return out, nil
}

// ResolveRef turns a server-relative download reference into an absolute URL.
func (a *API) ResolveRef(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return a.baseURL + ref
}

func (a *API) Download(ctx context.Context, ref string) (Artifact, error) {
	rawURL := a.ResolveRef(ref)
	return a.downloadWithRetry(ctx, downloadMaxAttempts, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	})
}

func (a *API) downloadWithRetry(ctx context.Context, attempts int, build func() (*http.Request, error)) (Artifact, error) {
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		req, err := build()
		if err != nil {
			return Artifact{}, err
		}
		art, err := a.downloadOnce(req)
		if err == nil {
			return art, nil
		}
		lastErr = err
		if !isRetryableRequestErr(err) || attempt == attempts {
			break
		}
		backoff := retryBackoff(attempt)
		a.emitTrace(TraceEvent{
			Stage:      "retry",
			Method:     req.Method,
			URL:        req.URL.String(),
			DurationMs: backoff.Milliseconds(),
			Error:      err.Error(),
			Request:    fmt.Sprintf(`{"attempt":%d,"next_attempt":%d}`, attempt, attempt+1),
		})
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Artifact{}, ctx.Err()
		case <-timer.C:
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Artifact{}, ctxErr
	}
	return Artifact{}, lastErr
}

func (a *API) downloadOnce(req *http.Request) (Artifact, error) {
	resp, body, err := a.send(req)
	if err != nil {
		return Artifact{}, err
	}
	if resp.StatusCode/100 != 2 {
		return Artifact{}, newStatusError(resp, body)
	}
	h := sha256.Sum256(body)
	return Artifact{
		Filename: attachmentName(resp.Header.Get("Content-Disposition")),
		Data:     body,
		SHA256:   hex.EncodeToString(h[:]),
	}, nil
}

func (a *API) doJSON(req *http.Request, out any) error {
	resp, body, err := a.send(req)
	if err != nil {
		return err
	}
	if resp.StatusCode/100 != 2 {
		return newStatusError(resp, body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (a *API) send(req *http.Request) (*http.Response, []byte, error) {
	reqBody := readReqBody(req)
	a.emitTrace(TraceEvent{
		Stage:   "request",
		Method:  req.Method,
		URL:     req.URL.String(),
		Request: reqBody,
	})
	start := time.Now()
	resp, err := a.http.Do(req)
	if err != nil {
		a.emitTrace(TraceEvent{
			Stage:      "error",
			Method:     req.Method,
			URL:        req.URL.String(),
			DurationMs: time.Since(start).Milliseconds(),
			Request:    reqBody,
			Error:      err.Error(),
		})
		return nil, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	respTrace := body
	if len(respTrace) > maxTraceBytes {
		respTrace = respTrace[:maxTraceBytes]
	}
	a.emitTrace(TraceEvent{
		Stage:      "response",
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		DurationMs: time.Since(start).Milliseconds(),
		Request:    reqBody,
		Response:   traceBody(respTrace),
	})
	return resp, body, nil
}

func newStatusError(resp *http.Response, body []byte) *StatusError {
	msg := strings.TrimSpace(string(body))
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = firstNonEmpty(payload.Error, payload.Message, msg)
	}
	return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Message: msg}
}

func attachmentName(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	name := strings.TrimSpace(params["filename"])
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return ""
	}
	return name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func retryBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return retryBackoffBase
	}
	if attempt > 10 {
		return retryBackoffMax
	}
	d := retryBackoffBase * time.Duration(1<<(attempt-1))
	if d > retryBackoffMax {
		return retryBackoffMax
	}
	return d
}

func isRetryableRequestErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests,
			http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	retryable := []string{
		"timeout",
		"tls handshake",
		"connection reset",
		"connection refused",
		"broken pipe",
		"unexpected eof",
		"eof",
	}
	for _, key := range retryable {
		if strings.Contains(msg, key) {
			return true
		}
	}
	return false
}
