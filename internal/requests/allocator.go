package requests

import (
	"fmt"
	"strconv"
	"strings"
)

// minSequenceWidth is a minimum, not a cap: 2025-1000 follows 2025-999.
const minSequenceWidth = 3

// Allocator picks the next human-readable request code.
type Allocator interface {
	Allocate(existing []string, year int) string
}

// AllocatorFunc adapts a plain function to Allocator.
type AllocatorFunc func(existing []string, year int) string

func (f AllocatorFunc) Allocate(existing []string, year int) string {
	return f(existing, year)
}

// YearSequence allocates codes shaped "{year}-{seq}" where seq restarts at 1 every year.
type YearSequence struct{}

func (YearSequence) Allocate(existing []string, year int) string {
	return AllocateCode(existing, year)
}

// AllocateCode returns "{year}-{max+1}" over the codes already issued for year,
// zero padded to at least three digits. Codes for other years or with a
// malformed suffix are ignored.
func AllocateCode(existing []string, year int) string {
	var highest int64
	for _, code := range existing {
		if seq, ok := parseSequence(code, year); ok && seq > highest {
			highest = seq
		}
	}
	return FormatCode(year, highest+1)
}

// FormatCode renders a year/sequence pair.
func FormatCode(year int, seq int64) string {
	return fmt.Sprintf("%d-%0*d", year, minSequenceWidth, seq)
}

// CodePrefix is the LIKE-friendly prefix shared by every code of year.
func CodePrefix(year int) string {
	return strconv.Itoa(year) + "-"
}

func parseSequence(code string, year int) (int64, bool) {
	suffix, found := strings.CutPrefix(strings.TrimSpace(code), CodePrefix(year))
	if !found || suffix == "" {
		return 0, false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	seq, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil || seq <= 0 {
		return 0, false
	}
	return seq, true
}
