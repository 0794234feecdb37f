package generation

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestEventJSONAlwaysCarriesAccumulation(t *testing.T) {
	// An error before the first fragment still reports what accumulated,
	// which is nothing.
	data, err := json.Marshal(Event{Status: StatusError, Error: "daemon unreachable"})
	if err != nil {
		t.Fatalf("marshal err: %v", err)
	}
	if !strings.Contains(string(data), `"accumulated_content":""`) {
		t.Fatalf("accumulated_content must be present even when empty: %s", data)
	}
	if !strings.Contains(string(data), `"content":""`) {
		t.Fatalf("content must be present even when empty: %s", data)
	}
}

func TestEventName(t *testing.T) {
	if got := (Event{Status: StatusError}).Name(); got != "error" {
		t.Fatalf("error status must map to error event, got %q", got)
	}
	if got := (Event{Status: StatusStreaming}).Name(); got != "message" {
		t.Fatalf("streaming status must map to message event, got %q", got)
	}
	if got := (Event{Status: StatusComplete}).Name(); got != "message" {
		t.Fatalf("complete status must map to message event, got %q", got)
	}
}
