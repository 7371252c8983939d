package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBundle    = "bundle"
	KeyCatalog   = "catalog"
	KeyArchive   = "archive"
	KeyPage      = "page"
	KeyPages     = "pages"
	KeyBatchSize = "batch_size"
	KeyStage     = "stage"
	KeyDuration  = "duration"
	KeyPath      = "path"
	KeyURL       = "url"
	KeyError     = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Bundle(id string) slog.Attr         { return slog.String(KeyBundle, id) }
func Catalog(path string) slog.Attr      { return slog.String(KeyCatalog, path) }
func Archive(path string) slog.Attr      { return slog.String(KeyArchive, path) }
func Page(route string) slog.Attr        { return slog.String(KeyPage, route) }
func Pages(n int) slog.Attr              { return slog.Int(KeyPages, n) }
func BatchSize(n int) slog.Attr          { return slog.Int(KeyBatchSize, n) }
func Stage(name string) slog.Attr        { return slog.String(KeyStage, name) }
func Duration(d time.Duration) slog.Attr { return slog.Duration(KeyDuration, d) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr             { return slog.String(KeyURL, u) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
