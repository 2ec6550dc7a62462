package telemetry

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Command is an inbound control message from <prefix>/commands
type Command string

// Known commands
const (
	CommandStatus  Command = "status"  // republish the status report
	CommandRestart Command = "restart" // reboot now, skipping the sleep
)

// commandEnvelope is the JSON form: {"command": "restart"}
type commandEnvelope struct {
	Command string `json:"command"`
}

// ParseCommand decodes an inbound command payload. Both the bare string
// form ("restart") and the JSON envelope form ({"command":"restart"})
// are accepted; older firmware published the former.
func ParseCommand(payload []byte) (Command, error) {
	text := strings.TrimSpace(string(payload))
	if text == "" {
		return "", fmt.Errorf("empty command payload")
	}

	if strings.HasPrefix(text, "{") {
		var env commandEnvelope
		if err := json.Unmarshal(payload, &env); err != nil {
			return "", fmt.Errorf("failed to parse command envelope: %w", err)
		}
		text = strings.TrimSpace(env.Command)
		if text == "" {
			return "", fmt.Errorf("command envelope has no command field")
		}
	}

	cmd := Command(strings.ToLower(text))
	switch cmd {
	case CommandStatus, CommandRestart:
		return cmd, nil
	default:
		return "", fmt.Errorf("unknown command %q", text)
	}
}
