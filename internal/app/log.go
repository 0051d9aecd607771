package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Logger prints human lines, or NDJSON events when verbose, and mirrors
// everything without ANSI sequences into an optional log file.
type Logger struct {
	verbose bool
	file    *os.File
	mu      sync.Mutex
}

var (
	ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

	okLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	infoLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

func NewLogger(verbose bool, logFile string) (*Logger, error) {
	l := &Logger{verbose: verbose}
	if strings.TrimSpace(logFile) == "" {
		return l, nil
	}
	dir := filepath.Dir(logFile)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	l.file = f
	return l, nil
}

func (l *Logger) Verbose() bool { return l.verbose }

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Logger) writeLine(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Println(line)
	if l.file != nil {
		_, _ = l.file.WriteString(ansiEscape.ReplaceAllString(line, "") + "\n")
	}
}

func (l *Logger) Info(msg string) {
	if l.verbose {
		l.Event("info", map[string]any{"message": ansiEscape.ReplaceAllString(msg, "")})
		return
	}
	l.writeLine(msg)
}

// Block prints a multi-line chunk of transcript as is.
func (l *Logger) Block(text string) {
	if text == "" {
		return
	}
	if l.verbose {
		l.Event("transcript", map[string]any{"text": text})
		return
	}
	l.writeLine(text)
}

func (l *Logger) Event(event string, fields map[string]any) {
	if !l.verbose {
		return
	}
	m := map[string]any{"ts": time.Now().Format(time.RFC3339Nano), "event": event}
	for k, v := range fields {
		m[k] = v
	}
	b, _ := json.Marshal(m)
	l.writeLine(string(b))
}
