package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPath       = "path"
	KeyRelPath    = "rel_path"
	KeyOutput     = "output"
	KeyFiles      = "files"
	KeyDirs       = "directories"
	KeyComponents = "components"
	KeyGuidMode   = "guid_mode"
	KeyDurationMS = "duration_ms"
	KeyHash       = "hash"
	KeyTool       = "tool"
	KeySubject    = "subject"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func RelPath(p string) slog.Attr       { return slog.String(KeyRelPath, p) }
func Output(p string) slog.Attr        { return slog.String(KeyOutput, p) }
func Files(n int) slog.Attr            { return slog.Int(KeyFiles, n) }
func Dirs(n int) slog.Attr             { return slog.Int(KeyDirs, n) }
func Components(n int) slog.Attr       { return slog.Int(KeyComponents, n) }
func GuidMode(m string) slog.Attr      { return slog.String(KeyGuidMode, m) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Hash(h string) slog.Attr          { return slog.String(KeyHash, h) }
func Tool(t string) slog.Attr          { return slog.String(KeyTool, t) }
func Subject(s string) slog.Attr       { return slog.String(KeySubject, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
