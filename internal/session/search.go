package session

import (
	"strings"
)

// Match points at one message whose content contains the active query.
type Match struct {
	Index     int    `json:"index"`
	MessageID string `json:"message_id"`
}

// SearchMeta is what consumers need to render the search overlay: how many
// matches exist, which one is current (1-based, 0 when there are none) and
// which message to highlight and scroll to.
type SearchMeta struct {
	Query     string `json:"query,omitempty"`
	Total     int    `json:"total"`
	Current   int    `json:"current"`
	Highlight string `json:"highlight,omitempty"`
}

// computeMatches scans the message list for the query as a case-insensitive
// substring and returns the matches in list order. A linear scan is fine
// here: the list is bounded to one conversation's history.
func computeMatches(entries []Entry, query string) []Match {
	if query == "" {
		return nil
	}

	needle := strings.ToLower(query)
	var matches []Match
	for i, e := range entries {
		if strings.Contains(strings.ToLower(e.Message.Content), needle) {
			id := e.Message.ID
			if e.Pending {
				id = e.LocalID
			}
			matches = append(matches, Match{Index: i, MessageID: id})
		}
	}
	return matches
}

// clampMatchPos bounds a cursor position to the available matches. Moving
// past either end is a no-op, not a wraparound.
func clampMatchPos(pos, total int) int {
	if total == 0 {
		return 0
	}
	if pos < 0 {
		return 0
	}
	if pos >= total {
		return total - 1
	}
	return pos
}

// searchMeta derives the consumer-facing view from the match set and the
// clamped cursor.
func searchMeta(query string, matches []Match, pos int) SearchMeta {
	meta := SearchMeta{Query: query, Total: len(matches)}
	if len(matches) == 0 {
		return meta
	}
	pos = clampMatchPos(pos, len(matches))
	meta.Current = pos + 1
	meta.Highlight = matches[pos].MessageID
	return meta
}
