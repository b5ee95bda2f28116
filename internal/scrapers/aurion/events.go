package aurion

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Event is one entry of the portal's schedule widget.
type Event struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Start    string `json:"start"`
	End      string `json:"end"`
	AllDay   bool   `json:"allDay"`
	Editable bool   `json:"editable"`
}

var eventsEnvelope = regexp.MustCompile(`(?s)^\s*\{\s*"events"\s*:\s*(\[.*\])\s*\}\s*$`)

// DecodeEvents extracts the events the schedule widget with id containerID
// received in a partial response.
func DecodeEvents(body []byte, containerID string) ([]Event, error) {
	res, err := ParsePartialResponse(body)
	if err != nil {
		return nil, err
	}
	content, ok := res.Update(containerID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrContainerNotFound, containerID)
	}

	groups := eventsEnvelope.FindStringSubmatch(content)
	if len(groups) < 2 {
		return nil, fmt.Errorf("%w: update %s", ErrEnvelopeMismatch, containerID)
	}

	events := []Event{}
	err = json.Unmarshal([]byte(groups[1]), &events)
	if err != nil {
		return nil, fmt.Errorf("%w: decode events: %w", ErrPageStructure, err)
	}
	return events, nil
}
