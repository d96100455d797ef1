// Package query turns a raw search term plus a file-type filter into the
// effective query sent to the result fetchers.
package query

import (
	"fmt"
	"strings"
)

// FileFilter narrows file results to a category of extensions.
type FileFilter int

const (
	All FileFilter = iota
	Documents
	Spreadsheets
	Presentations
	Code
	Images
	Audio
	Video
)

// Filters lists every filter in display order.
var Filters = []FileFilter{All, Documents, Spreadsheets, Presentations, Code, Images, Audio, Video}

var filterNames = map[FileFilter]string{
	All:           "all",
	Documents:     "documents",
	Spreadsheets:  "spreadsheets",
	Presentations: "presentations",
	Code:          "code",
	Images:        "images",
	Audio:         "audio",
	Video:         "video",
}

var filterExtensions = map[FileFilter][]string{
	Documents:     {"doc", "docx", "odt", "pdf", "txt", "rtf"},
	Spreadsheets:  {"xls", "xlsx", "ods", "csv"},
	Presentations: {"ppt", "pptx", "odp"},
	Code:          {"c", "cpp", "css", "go", "h", "html", "java", "js", "json", "md", "py", "rb", "rs", "sh", "sql", "ts", "yaml", "yml"},
	Images:        {"bmp", "gif", "jpeg", "jpg", "png", "psd", "svg", "tif", "tiff", "webp"},
	Audio:         {"aac", "flac", "m4a", "mp3", "ogg", "wav"},
	Video:         {"avi", "mkv", "mov", "mp4", "webm", "wmv"},
}

// String returns the lowercase filter name used in config and flags.
func (f FileFilter) String() string {
	if name, ok := filterNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FileFilter(%d)", int(f))
}

// Label returns the filter name for display.
func (f FileFilter) Label() string {
	name := f.String()
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// Extensions returns the extensions matched by f. All returns nil.
func (f FileFilter) Extensions() []string {
	exts := filterExtensions[f]
	if len(exts) == 0 {
		return nil
	}
	out := make([]string, len(exts))
	copy(out, exts)
	return out
}

// Next returns the filter after f, wrapping around to All.
func (f FileFilter) Next() FileFilter {
	for i, v := range Filters {
		if v == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return All
}

// ParseFileFilter parses a filter name. The empty string parses as All.
func ParseFileFilter(s string) (FileFilter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return All, nil
	}
	for f, name := range filterNames {
		if name == s {
			return f, nil
		}
	}
	return All, fmt.Errorf("unknown file filter %q", s)
}

// Clause returns the extension clause appended to the term for f, e.g.
// "ext:png ext:jpg". All has no clause.
func (f FileFilter) Clause() string {
	exts := filterExtensions[f]
	if len(exts) == 0 {
		return ""
	}
	parts := make([]string, len(exts))
	for i, e := range exts {
		parts[i] = "ext:" + e
	}
	return strings.Join(parts, " ")
}

// Effective is the normalized query handed to fetchers.
type Effective struct {
	Terms      string
	IsOrSearch bool
}

// IsEmpty reports whether there is nothing to search for.
func (e Effective) IsEmpty() bool {
	return e.Terms == ""
}

// Build derives the effective query for term and filter. A term that is
// empty after trimming yields the zero Effective.
func Build(term string, filter FileFilter) Effective {
	term = strings.TrimSpace(term)
	if term == "" {
		return Effective{}
	}
	terms := term
	if clause := filter.Clause(); clause != "" {
		terms = term + " " + clause
	}
	return Effective{Terms: terms, IsOrSearch: true}
}

// Search is a dispatched query: the raw term plus the team and filter it
// was issued against.
type Search struct {
	Term   string
	TeamID string
	Filter FileFilter
}

// Effective returns the effective query for s.
func (s Search) Effective() Effective {
	return Build(s.Term, s.Filter)
}

// WithFilter returns a copy of s with filter applied.
func (s Search) WithFilter(filter FileFilter) Search {
	s.Filter = filter
	return s
}
