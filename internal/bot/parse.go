package bot

import "strings"

// Command is one parsed chat message. Name is empty for bare text.
type Command struct {
	Name string
	Args string
}

// Parse splits text into a command name and its argument string. A leading
// "/name@botname" addressing suffix is dropped and names are lower-cased.
// ok is false for blank input.
func Parse(text string) (cmd Command, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Command{}, false
	}
	if !strings.HasPrefix(text, "/") {
		return Command{Args: text}, true
	}

	head, rest, _ := strings.Cut(text, " ")
	if i := strings.IndexAny(head, "\n\t"); i >= 0 {
		rest = head[i+1:] + " " + rest
		head = head[:i]
	}
	name, _, _ := strings.Cut(strings.TrimPrefix(head, "/"), "@")
	if name == "" {
		return Command{}, false
	}
	return Command{Name: strings.ToLower(name), Args: strings.TrimSpace(rest)}, true
}
