package memory

import (
	"fmt"
	"strings"
)

// ContextBundle is the payload ContextFor assembles for a downstream
// language-model prompt. The three sections stay separate labeled lists
// rather than one merged ranking: flattening would lose the provenance needed
// for prompt construction and debugging.
type ContextBundle struct {
	// Recent holds short-term interactions, most recent first.
	Recent []Interaction `json:"recent"`

	// Important holds the user's top long-term records by importance.
	Important []*MemoryRecord `json:"important"`

	// Related holds similarity-search results seeded by the most recent user
	// message, deduplicated against Important by id.
	Related []*MemoryRecord `json:"related"`
}

// Empty reports whether the bundle carries no context at all.
func (b *ContextBundle) Empty() bool {
	return len(b.Recent) == 0 && len(b.Important) == 0 && len(b.Related) == 0
}

// Format renders the bundle as labeled prompt sections. Empty sections are
// omitted; an empty bundle renders as an empty string.
func (b *ContextBundle) Format() string {
	var sb strings.Builder

	if len(b.Recent) > 0 {
		sb.WriteString("=== RECENT CONVERSATION ===\n")
		// Oldest first so the model reads the exchange in order.
		for i := len(b.Recent) - 1; i >= 0; i-- {
			it := b.Recent[i]
			ts := it.Timestamp.Format("15:04")
			fmt.Fprintf(&sb, "[%s] User: %s\n", ts, it.UserMessage)
			fmt.Fprintf(&sb, "[%s] Assistant: %s\n", ts, it.AssistantResponse)
		}
	}

	writeRecords(&sb, "=== IMPORTANT MEMORIES ===", b.Important)
	writeRecords(&sb, "=== RELATED MEMORIES ===", b.Related)

	return sb.String()
}

func writeRecords(sb *strings.Builder, header string, records []*MemoryRecord) {
	if len(records) == 0 {
		return
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(header)
	sb.WriteString("\n")
	for _, rec := range records {
		fmt.Fprintf(sb, "[%s] (%s) %s\n",
			rec.Timestamp.Format("2006-01-02 15:04"), rec.MemoryType, rec.Content)
	}
}
