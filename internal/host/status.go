package host

import (
	"bytes"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// ErrMalformedStatus indicates a status body in none of the supported shapes.
var ErrMalformedStatus = errors.New("malformed status response")

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// statusPageIndicatorNone is the statuspage.io indicator for "all systems operational".
const statusPageIndicatorNone = "none"

// DecodeStatus normalizes a status endpoint body.
//
// Accepted shapes:
//   - {"status": "good"}
//   - the same object encoded as a JSON string
//   - statuspage v2: {"status": {"indicator": "none", "description": "..."}},
//     where indicator "none" maps to [StatusGood]
func DecodeStatus(body []byte) (ServiceStatus, error) {
	body = bytes.TrimSpace(body)

	if len(body) > 0 && body[0] == '"' {
		var inner string
		if err := jsonAPI.Unmarshal(body, &inner); err != nil {
			return ServiceStatus{}, fmt.Errorf("%w: %v", ErrMalformedStatus, err)
		}
		body = bytes.TrimSpace([]byte(inner))
	}

	var doc struct {
		Status jsoniter.RawMessage `json:"status"`
	}
	if err := jsonAPI.Unmarshal(body, &doc); err != nil {
		return ServiceStatus{}, fmt.Errorf("%w: %v", ErrMalformedStatus, err)
	}
	raw := bytes.TrimSpace(doc.Status)
	if len(raw) == 0 {
		return ServiceStatus{}, fmt.Errorf("%w: no status field", ErrMalformedStatus)
	}

	switch raw[0] {
	case '"':
		var s string
		if err := jsonAPI.Unmarshal(raw, &s); err != nil {
			return ServiceStatus{}, fmt.Errorf("%w: %v", ErrMalformedStatus, err)
		}
		return ServiceStatus{Status: s}, nil

	case '{':
		var page struct {
			Indicator   string `json:"indicator"`
			Description string `json:"description"`
		}
		if err := jsonAPI.Unmarshal(raw, &page); err != nil {
			return ServiceStatus{}, fmt.Errorf("%w: %v", ErrMalformedStatus, err)
		}
		if page.Indicator == "" {
			return ServiceStatus{}, fmt.Errorf("%w: no status indicator", ErrMalformedStatus)
		}
		status := page.Indicator
		if status == statusPageIndicatorNone {
			status = StatusGood
		}
		return ServiceStatus{Status: status, Description: page.Description}, nil
	}

	return ServiceStatus{}, fmt.Errorf("%w: unexpected status value %s", ErrMalformedStatus, raw)
}
