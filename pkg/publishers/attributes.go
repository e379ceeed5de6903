package publishers

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// encodeEvent returns the JSON payload and routing attributes shared by the message sinks.
func encodeEvent(evt Event) ([]byte, map[string]string, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal event: %w", err)
	}
	attrs := map[string]string{
		"profile_id":  evt.ProfileID,
		"status_code": strconv.Itoa(evt.StatusCode),
	}
	if evt.Format != "" {
		attrs["format"] = evt.Format
	}
	return payload, attrs, nil
}

// attributeType is the AWS message attribute data type for a key.
func attributeType(key string) string {
	if key == "status_code" {
		return "Number"
	}
	return "String"
}
