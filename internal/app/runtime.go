package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"rpgm-translator/internal/client"
	"rpgm-translator/internal/config"
	"rpgm-translator/internal/output"
)

// Options are shared by every command that talks to the service.
type Options struct {
	ConfigPath string
	Verbose    bool
	LogFile    string
	OutputDir  string
}

type runtime struct {
	cfg  config.Config
	log  *Logger
	api  *client.API
	svc  *service
	out  string
	poll time.Duration
}

func openRuntime(opts Options) (*runtime, error) {
	cfgPath, err := config.ResolvePath(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrInit(cfgPath)
	if err != nil {
		return nil, err
	}
	log, err := NewLogger(opts.Verbose, opts.LogFile)
	if err != nil {
		return nil, err
	}
	api := client.New(cfg.Server.BaseURL)
	api.SetTrace(func(ev client.TraceEvent) {
		if shouldSkipVerboseHTTPTrace(opts.Verbose, ev) {
			return
		}
		log.Event("http_"+ev.Stage, map[string]any{
			"method":      ev.Method,
			"url":         ev.URL,
			"status_code": ev.StatusCode,
			"duration_ms": ev.DurationMs,
			"request":     ev.Request,
			"response":    ev.Response,
			"error":       ev.Error,
		})
	})
	out := strings.TrimSpace(opts.OutputDir)
	if out == "" {
		out = cfg.Output.Dir
	}
	return &runtime{
		cfg:  cfg,
		log:  log,
		api:  api,
		svc:  newService(api),
		out:  out,
		poll: time.Duration(cfg.Run.PollIntervalMs) * time.Millisecond,
	}, nil
}

func (rt *runtime) Close() {
	_ = rt.log.Close()
}

// download fetches ref into the output directory and returns the written path.
func (rt *runtime) download(ctx context.Context, jobID, ref, target string) (string, error) {
	start := time.Now()
	art, err := rt.api.Download(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	p, err := output.WriteArtifact(rt.out, art.Filename, target, jobID, art.Data)
	if err != nil {
		return "", err
	}
	rt.log.Event("artifact_saved", map[string]any{
		"job_id": jobID,
		"path":   mustAbsPath(p),
		"bytes":  len(art.Data),
		"sha256": art.SHA256,
	})
	rt.log.Info(fmt.Sprintf("%s %s (%s, %s)", okLabel.Render("saved"), mustAbsPath(p), humanBytes(len(art.Data)), humanDurationShort(time.Since(start))))
	return p, nil
}

// shouldSkipVerboseHTTPTrace drops status polls from the verbose stream.
func shouldSkipVerboseHTTPTrace(verbose bool, ev client.TraceEvent) bool {
	if !verbose {
		return true
	}
	return strings.EqualFold(ev.Method, "GET") && strings.Contains(ev.URL, "/api/status/")
}

func humanDurationShort(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	sec := int64(d.Round(time.Second) / time.Second)
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func mustAbsPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
