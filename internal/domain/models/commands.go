package models

import "strings"

// CommandType enumerates supported text command categories.
type CommandType string

const (
	CommandBuy      CommandType = "buy"
	CommandMint     CommandType = "mint"
	CommandLay      CommandType = "lay"
	CommandSell     CommandType = "sell"
	CommandTransfer CommandType = "transfer"
	CommandBalance  CommandType = "balance"
	CommandUnknown  CommandType = "unknown"
)

// Command represents a parsed player instruction extracted from free-form text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command instance from free-form text messages.
func ParseCommand(message string) Command {
	normalized := strings.TrimSpace(strings.ToLower(message))

	if normalized == "" {
		return Command{Type: CommandUnknown, Raw: message}
	}

	tokens := strings.Fields(normalized)
	cmd := Command{Raw: message}

	head := strings.TrimPrefix(tokens[0], "/")
	switch head {
	case string(CommandBuy):
		cmd.Type = CommandBuy
	case string(CommandMint), "create":
		cmd.Type = CommandMint
	case string(CommandLay), "egg":
		cmd.Type = CommandLay
	case string(CommandSell):
		cmd.Type = CommandSell
	case string(CommandTransfer):
		cmd.Type = CommandTransfer
	case string(CommandBalance):
		cmd.Type = CommandBalance
	default:
		cmd.Type = CommandUnknown
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
