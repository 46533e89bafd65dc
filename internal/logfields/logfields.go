package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyDocument   = "document_id"
	KeyLanguage   = "language"
	KeySection    = "section"
	KeyFile       = "file"
	KeyPath       = "path"
	KeyStage      = "stage"
	KeyBlockID    = "block_id"
	KeyBlockType  = "block_type"
	KeyBackend    = "backend"
	KeyAttempt    = "attempt"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeySchedule   = "schedule_name"
	KeyURL        = "url"
	KeyStatus     = "status"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Document(id string) slog.Attr    { return slog.String(KeyDocument, id) }
func Language(code string) slog.Attr  { return slog.String(KeyLanguage, code) }
func Section(s string) slog.Attr      { return slog.String(KeySection, s) }
func File(name string) slog.Attr      { return slog.String(KeyFile, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func BlockID(id string) slog.Attr     { return slog.String(KeyBlockID, id) }
func BlockType(t int) slog.Attr       { return slog.Int(KeyBlockType, t) }
func Backend(name string) slog.Attr   { return slog.String(KeyBackend, name) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func ScheduleName(n string) slog.Attr { return slog.String(KeySchedule, n) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }

// Error renders err as a string attribute; a nil error yields an empty value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
