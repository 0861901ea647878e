package hostinterface

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/RacingGame/vehiclectl/internal/dispatcher"
)

// TimestampCommand is answered without a dispatcher.
const TimestampCommand = ":TIMESTAMP:"

// argSeparator splits a plain call such as ":VEHICLE:WAYPOINT:|3".
const argSeparator = "|"

// Call routes one host call and returns the response string.
func Call(command string, args []string) string {
	_, d, now := Config.snapshot()

	if command == TimestampCommand {
		return fmt.Sprintf("%d", now().UTC().UnixNano())
	}
	if d == nil || !d.HasHandler(command) {
		return formatDispatchResponse(command, nil, fmt.Errorf("no handler registered for %s", command))
	}

	result, err := d.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      args,
		Timestamp: now(),
	})
	return formatDispatchResponse(command, result, err)
}

// CallString handles the plain call form, where arguments follow the command
// separated by "|".
func CallString(input string) string {
	parts := strings.Split(input, argSeparator)
	if len(parts) == 1 {
		return Call(parts[0], nil)
	}
	return Call(parts[0], parts[1:])
}

// formatDispatchResponse formats the dispatcher result for the host
func formatDispatchResponse(command string, result any, err error) string {
	if err != nil {
		return fmt.Sprintf(`["error", %s]`, quote(err.Error()))
	}
	if result == nil {
		return `["ok"]`
	}
	if s, ok := result.(string); ok {
		return fmt.Sprintf(`["ok", %s]`, quote(s))
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf(`["error", %s]`, quote(fmt.Sprintf("%s: encoding result: %s", command, err)))
	}
	return fmt.Sprintf(`["ok", %s]`, data)
}

// quote wraps s in double quotes the way the host's parser reads strings:
// embedded quotes are doubled, everything else is literal.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
