package transcript

import (
	"fmt"
	"strings"

	"rpgm-translator/internal/logentry"
)

// Placeholder is rendered for an empty log.
const Placeholder = "No entries yet..."

const rule = "------------------------------------------------"

// Format renders entries in order, one block per entry, blocks separated by a blank line.
func Format(entries []logentry.Entry) string {
	if len(entries) == 0 {
		return Placeholder
	}
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, FormatEntry(e))
	}
	return strings.Join(blocks, "\n\n")
}

func FormatEntry(e logentry.Entry) string {
	switch v := e.(type) {
	case logentry.Translation:
		return fmt.Sprintf("%s\n%s (%02d/%d) - File: %s\nRaw: %s\nTranslated: %s\n%s",
			rule, v.Kind, v.Index, v.Total, v.File, v.Raw, v.Translated, rule)
	case logentry.Anomaly:
		return fmt.Sprintf("Anomaly found at (%s): %s", v.Path, v.Raw)
	case logentry.Failure:
		return "ERROR: " + v.Message
	case logentry.Text:
		return string(v)
	case logentry.Unknown:
		return string(v.Raw)
	default:
		// nil or a foreign implementation; keep rendering the rest.
		return fmt.Sprintf("%v", e)
	}
}

// Tail returns the blocks of next that follow the already shown transcript.
// reset is true when next does not extend shown and has to be shown in full.
func Tail(shown, next string) (suffix string, reset bool) {
	switch {
	case next == shown:
		return "", false
	case shown == "" || shown == Placeholder:
		return next, false
	}
	rest, ok := strings.CutPrefix(next, shown+"\n\n")
	if !ok {
		return next, true
	}
	return rest, false
}
