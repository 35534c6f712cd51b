package usecase

import "strings"

// Intent is the closed set of bot commands.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentHelp
	IntentList
	IntentAdd
	IntentRemove
)

func (i Intent) String() string {
	switch i {
	case IntentHelp:
		return "help"
	case IntentList:
		return "list"
	case IntentAdd:
		return "add"
	case IntentRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Command is a parsed chat message. Args holds the tokens after the command
// word and is only set for IntentAdd and IntentRemove.
type Command struct {
	Intent Intent
	Args   []string
}

// ParseCommand classifies text without checking argument counts. Help and
// list must be the whole message; add and remove match on prefix.
func ParseCommand(text string) Command {
	text = strings.TrimSpace(text)
	switch {
	case text == "/start" || text == "/ajuda":
		return Command{Intent: IntentHelp}
	case text == "/lista":
		return Command{Intent: IntentList}
	case strings.HasPrefix(text, "/adiciona"):
		return Command{Intent: IntentAdd, Args: strings.Fields(text)[1:]}
	case strings.HasPrefix(text, "/remove"):
		return Command{Intent: IntentRemove, Args: strings.Fields(text)[1:]}
	default:
		return Command{Intent: IntentUnknown}
	}
}
