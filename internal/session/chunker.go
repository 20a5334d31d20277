package session

import "strings"

const (
	// DefaultMaxMessages and DefaultMaxChars are spec §4 invariant 8's
	// bounds: a chunk closes at whichever limit is hit first.
	DefaultMaxMessages = 10
	DefaultMaxChars    = 8000
)

// ChunkOptions bounds Chunk's output.
type ChunkOptions struct {
	MaxMessages int
	MaxChars    int
	Overlap     int // messages repeated at the start of the next chunk
}

func (o ChunkOptions) withDefaults() ChunkOptions {
	if o.MaxMessages <= 0 {
		o.MaxMessages = DefaultMaxMessages
	}
	if o.MaxChars <= 0 {
		o.MaxChars = DefaultMaxChars
	}
	if o.Overlap < 0 {
		o.Overlap = 0
	}
	if o.Overlap >= o.MaxMessages {
		o.Overlap = o.MaxMessages - 1
	}
	return o
}

// Chunk splits messages into bounded windows: a chunk closes once it would
// exceed MaxMessages or MaxChars, and the next chunk opens by repeating the
// last Overlap messages of the one before it (spec §4 invariant 8).
func Chunk(messages []Message, opts ChunkOptions) [][]Message {
	opts = opts.withDefaults()
	if len(messages) == 0 {
		return nil
	}

	var chunks [][]Message
	var current []Message
	currentChars := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, current)
		if opts.Overlap > 0 && opts.Overlap < len(current) {
			current = append([]Message(nil), current[len(current)-opts.Overlap:]...)
		} else {
			current = nil
		}
		currentChars = 0
		for _, m := range current {
			currentChars += len(m.Text)
		}
	}

	for _, m := range messages {
		wouldExceedCount := len(current)+1 > opts.MaxMessages
		wouldExceedChars := currentChars+len(m.Text) > opts.MaxChars && len(current) > 0
		if wouldExceedCount || wouldExceedChars {
			flush()
		}
		current = append(current, m)
		currentChars += len(m.Text)
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

// Render joins a chunk's messages into the plain-text content of its
// transcript_chunk memory, generalizing the teacher's Condense (drop the
// first/last/mid truncation rules, since Chunk already bounds size; keep
// the role-tagged line format).
func Render(messages []Message) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString("[")
		b.WriteString(strings.ToUpper(m.Role))
		b.WriteString("] ")
		b.WriteString(m.Text)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}
