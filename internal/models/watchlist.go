package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// codePattern matches a valid four-digit Taiwan stock code.
var codePattern = regexp.MustCompile(`^\d{4}$`)

// WatchlistEntry is one company in scope for a run. Entries are created at
// load time and never mutated.
type WatchlistEntry struct {
	Code string `json:"code"` // Four-digit stock code in 1000..9999
	Name string `json:"name"` // Company short name, <=30 chars
}

// Validate checks the entry against the watchlist contract.
func (e WatchlistEntry) Validate() error {
	if !codePattern.MatchString(e.Code) {
		return fmt.Errorf("invalid stock code %q: must be four digits", e.Code)
	}
	n, _ := strconv.Atoi(e.Code)
	if n < 1000 || n > 9999 {
		return fmt.Errorf("stock code %q out of range 1000..9999", e.Code)
	}
	if e.Name == "" {
		return fmt.Errorf("empty company name for code %s", e.Code)
	}
	if len([]rune(e.Name)) > 30 {
		return fmt.Errorf("company name for code %s exceeds 30 characters", e.Code)
	}
	if strings.ContainsAny(e.Name, "|\t\n\r\x00") {
		return fmt.Errorf("company name for code %s contains forbidden characters", e.Code)
	}
	for _, r := range e.Name {
		if !unicode.IsPrint(r) {
			return fmt.Errorf("company name for code %s contains non-printable characters", e.Code)
		}
	}
	return nil
}

// Watchlist is an ordered, code-unique set of entries.
type Watchlist struct {
	Entries []WatchlistEntry
	byCode  map[string]WatchlistEntry
}

// NewWatchlist builds a watchlist from already-validated entries.
func NewWatchlist(entries []WatchlistEntry) *Watchlist {
	w := &Watchlist{
		Entries: entries,
		byCode:  make(map[string]WatchlistEntry, len(entries)),
	}
	for _, e := range entries {
		w.byCode[e.Code] = e
	}
	return w
}

// Contains reports whether a stock code is in scope.
func (w *Watchlist) Contains(code string) bool {
	_, ok := w.byCode[code]
	return ok
}

// Lookup returns the entry for a code.
func (w *Watchlist) Lookup(code string) (WatchlistEntry, bool) {
	e, ok := w.byCode[code]
	return e, ok
}

// Len returns the number of entries.
func (w *Watchlist) Len() int {
	return len(w.Entries)
}

// WatchlistStats summarizes one load of a watchlist file.
type WatchlistStats struct {
	TotalRows    int            `json:"total_rows"`
	Valid        int            `json:"valid"`
	Invalid      int            `json:"invalid"`
	Duplicates   int            `json:"duplicates"`
	Distribution map[string]int `json:"distribution"` // Per-thousand code range, e.g. "2000-2999"
	Encoding     string         `json:"encoding"`
}
