package mailcore

import (
	"sort"
	"strings"

	"github.com/emersion/go-maildir"
)

// flagMarker separates the unique part of a maildir filename from its
// flag characters, per the maildir naming convention.
const flagMarker = ":2,"

// Well-known flag characters. Except for FlagNew these follow the maildir
// convention; FlagNew is synthesized from a message's presence in new/.
// Unknown characters are passed through unmodified.
const (
	FlagNew     = byte('N')
	FlagSeen    = byte(maildir.FlagSeen)
	FlagReplied = byte(maildir.FlagReplied)
	FlagFlagged = byte(maildir.FlagFlagged)
	FlagDraft   = byte(maildir.FlagDraft)
	FlagTrashed = byte(maildir.FlagTrashed)
)

// SortFlags returns the flag string sorted with duplicates removed.
func SortFlags(flags string) string {
	b := []byte(flags)
	sort.Slice(b, func(i, j int) bool { return b[i] < b[j] })

	out := b[:0]
	for i, c := range b {
		if i > 0 && c == b[i-1] {
			continue
		}
		out = append(out, c)
	}
	return string(out)
}

// FlagsFromPath derives the flag set encoded in a maildir path: the
// characters after the ":2," marker, plus an implicit N for messages
// under a new/ directory component. The result is sorted and deduplicated.
func FlagsFromPath(path string) string {
	if path == "" {
		return ""
	}

	flags := ""
	if idx := strings.Index(path, flagMarker); idx >= 0 {
		flags = path[idx+len(flagMarker):]
	}

	if strings.Contains(path, "/new/") {
		flags += string(FlagNew)
	}

	return SortFlags(flags)
}

// PathWithFlags computes the destination path that encodes the given flag
// set: the path truncated at the ":2," marker (or taken whole if no marker
// exists) with ":2," and the sorted, deduplicated flags appended.
func PathWithFlags(path, flags string) string {
	flags = SortFlags(flags)

	base := path
	if idx := strings.Index(path, flagMarker); idx >= 0 {
		base = path[:idx]
	}
	return base + flagMarker + flags
}

func upperFlag(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
