package annotator

import "strings"

type Kind int

const (
	Text Kind = iota
	Skip
	Quit
	Delete
)

// Command is one line of operator input.
type Command struct {
	Kind Kind
	// Text is the trimmed sentence for Kind Text.
	Text string
}

// ParseCommand trims line and maps the reserved words s, skip, q, quit and
// delete (any case) to their commands. Blank input is a Skip. Anything else
// is a sentence.
func ParseCommand(line string) Command {
	text := strings.TrimSpace(line)

	switch strings.ToLower(text) {
	case "", "s", "skip":
		return Command{Kind: Skip}
	case "q", "quit":
		return Command{Kind: Quit}
	case "delete":
		return Command{Kind: Delete}
	}

	return Command{Kind: Text, Text: text}
}
