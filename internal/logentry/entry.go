package logentry

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Kind string

const (
	KindDialog      Kind = "dialog"
	KindObject      Kind = "object"
	KindCommonEvent Kind = "common_event"
	KindAnomaly     Kind = "anomaly"
	KindError       Kind = "error"
)

// Editable reports whether entries of this kind may carry user corrections.
func (k Kind) Editable() bool {
	switch k {
	case KindDialog, KindObject, KindCommonEvent:
		return true
	default:
		return false
	}
}

// Entry is one item of a job log. The set of implementations is closed:
// Translation, Anomaly, Failure, Text and Unknown.
type Entry interface {
	isEntry()
}

// Translation is a dialog, object or common event string and the only editable kind.
type Translation struct {
	Kind       Kind
	File       string
	Path       string
	Index      int
	Total      int
	Raw        string
	Translated string
}

// Anomaly marks content that diverged from the expected structure.
type Anomaly struct {
	Path string
	Raw  string
}

// Failure is an error line reported by the service.
type Failure struct {
	Message string
}

// Text is free-form diagnostic output.
type Text string

// Unknown keeps an entry with an unrecognized tag byte-for-byte.
type Unknown struct {
	Raw json.RawMessage
}

func (Translation) isEntry() {}
func (Anomaly) isEntry()     {}
func (Failure) isEntry()     {}
func (Text) isEntry()        {}
func (Unknown) isEntry()     {}

type wireEntry struct {
	Type       Kind    `json:"type"`
	File       *string `json:"file,omitempty"`
	Path       *string `json:"path,omitempty"`
	Index      *int    `json:"index,omitempty"`
	Total      *int    `json:"total,omitempty"`
	Raw        *string `json:"raw,omitempty"`
	Translated *string `json:"translated,omitempty"`
	Message    *string `json:"message,omitempty"`
}

// Log is an ordered entry sequence as returned by the service.
type Log []Entry

func (l *Log) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*l = nil
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return fmt.Errorf("decode log: %w", err)
	}
	out := make(Log, 0, len(items))
	for _, item := range items {
		out = append(out, Decode(item))
	}
	*l = out
	return nil
}

func (l Log) MarshalJSON() ([]byte, error) {
	items := make([]json.RawMessage, 0, len(l))
	for i, e := range l {
		b, err := Encode(e)
		if err != nil {
			return nil, fmt.Errorf("encode log entry %d: %w", i, err)
		}
		items = append(items, b)
	}
	return json.Marshal(items)
}

// Decode never fails: anything that does not match a known shape becomes Unknown.
func Decode(raw json.RawMessage) Entry {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return Text(s)
		}
	}
	var w wireEntry
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return Unknown{Raw: append(json.RawMessage(nil), trimmed...)}
	}
	switch {
	case w.Type.Editable():
		return Translation{
			Kind:       w.Type,
			File:       deref(w.File),
			Path:       deref(w.Path),
			Index:      derefInt(w.Index),
			Total:      derefInt(w.Total),
			Raw:        deref(w.Raw),
			Translated: deref(w.Translated),
		}
	case w.Type == KindAnomaly:
		return Anomaly{Path: deref(w.Path), Raw: deref(w.Raw)}
	case w.Type == KindError:
		return Failure{Message: deref(w.Message)}
	default:
		return Unknown{Raw: append(json.RawMessage(nil), trimmed...)}
	}
}

func Encode(e Entry) (json.RawMessage, error) {
	switch v := e.(type) {
	case Translation:
		return json.Marshal(wireEntry{
			Type:       v.Kind,
			File:       &v.File,
			Path:       &v.Path,
			Index:      &v.Index,
			Total:      &v.Total,
			Raw:        &v.Raw,
			Translated: &v.Translated,
		})
	case Anomaly:
		return json.Marshal(wireEntry{Type: KindAnomaly, Path: &v.Path, Raw: &v.Raw})
	case Failure:
		return json.Marshal(wireEntry{Type: KindError, Message: &v.Message})
	case Text:
		return json.Marshal(string(v))
	case Unknown:
		if len(v.Raw) == 0 {
			return json.RawMessage("null"), nil
		}
		return v.Raw, nil
	default:
		return nil, fmt.Errorf("unsupported entry %T", e)
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
