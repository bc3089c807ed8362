package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrMalformedContrastSample is returned when a contrastdata entry is not a
// four element array of ratio, foreground, background and pass.
var ErrMalformedContrastSample = errors.New("malformed contrast data: expected [ratio, foreground, background, pass]")

// ErrMalformedMap is returned when categories or items are neither a JSON
// object nor an empty array.
var ErrMalformedMap = errors.New("malformed map: expected object or empty array")

// Status is the normalized outcome of a WAVE API request.
type Status string

const (
	// StatusOK means the report carries statistics and categories.
	StatusOK Status = "ok"

	// StatusError means the API refused or failed the request.
	// Message explains why.
	StatusError Status = "error"
)

// Categories maps category keys (e.g. "error", "alert", "contrast") to
// categories, in the order they appeared in the API response.
type Categories = orderedmap.OrderedMap[string, Category]

// Items maps item keys (e.g. "alt_missing") to items, in response order.
type Items = orderedmap.OrderedMap[string, Item]

// NewCategories returns an empty Categories map.
func NewCategories() *Categories {
	return orderedmap.New[string, Category]()
}

// NewItems returns an empty Items map.
func NewItems() *Items {
	return orderedmap.New[string, Item]()
}

// AccessibilityReport is a WAVE API response.
//
// The report is built once per scan request, read by the formatter and then
// discarded. Categories and items keep the key order of the JSON they were
// decoded from, so formatted output is only as reproducible as that order.
type AccessibilityReport struct {
	// Status is StatusOK for a usable report.
	Status Status `json:"status"`

	// Message describes the failure when Status is StatusError.
	Message string `json:"message,omitempty"`

	// HTTPStatusCode is the status WAVE saw when fetching the page, if reported.
	HTTPStatusCode int `json:"httpstatuscode,omitempty"`

	// Statistics is nil when the response did not include it.
	Statistics *Statistics `json:"statistics,omitempty"`

	// Categories is nil when the response did not include it.
	Categories *Categories `json:"categories,omitempty"`
}

// Statistics holds page level figures from the WAVE response.
type Statistics struct {
	PageTitle        string      `json:"pagetitle"`
	PageURL          string      `json:"pageurl,omitempty"`
	Time             json.Number `json:"time,omitempty"`
	CreditsRemaining int         `json:"creditsremaining,omitempty"`
	AllItemCount     int         `json:"allitemcount"`
	TotalElements    int         `json:"totalelements"`
	WaveURL          string      `json:"waveurl,omitempty"`
}

// Category groups related findings, such as errors or contrast problems.
type Category struct {
	Description string `json:"description"`
	Count       int    `json:"count"`
	Items       *Items `json:"items,omitempty"`
}

// UnmarshalJSON decodes a category. Items may arrive as [] or null when the
// category has no findings; both decode to an empty Items map.
func (c *Category) UnmarshalJSON(data []byte) error {
	var wire struct {
		Description string          `json:"description"`
		Count       int             `json:"count"`
		Items       json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	items, err := decodeOrderedMap[Item](wire.Items)
	if err != nil {
		return fmt.Errorf("invalid items: %w", err)
	}

	*c = Category{
		Description: wire.Description,
		Count:       wire.Count,
		Items:       items,
	}
	return nil
}

// decodeOrderedMap decodes a JSON object into an ordered map.
//
// The WAVE API is served by PHP, whose json_encode writes an empty
// associative array as [] instead of {}. An empty array and null therefore
// yield an empty map. An absent field yields nil.
func decodeOrderedMap[V any](raw json.RawMessage) (*orderedmap.OrderedMap[string, V], error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	m := orderedmap.New[string, V]()
	switch raw[0] {
	case 'n':
		if !bytes.Equal(raw, []byte("null")) {
			return nil, fmt.Errorf("%w: unexpected %s", ErrMalformedMap, string(raw))
		}
		return m, nil
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedMap, err)
		}
		if len(list) != 0 {
			return nil, fmt.Errorf("%w: got an array of %d elements", ErrMalformedMap, len(list))
		}
		return m, nil
	case '{':
		if err := json.Unmarshal(raw, m); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: unexpected %s", ErrMalformedMap, string(raw))
	}
}

// Item is a single finding type within a category.
type Item struct {
	ID          string `json:"id,omitempty"`
	Description string `json:"description"`
	Count       int    `json:"count"`

	// XPaths locate each occurrence in the page. Nil when the response
	// carried no xpaths for this item.
	XPaths []string `json:"xpaths,omitempty"`

	// ContrastData holds one sample per contrast check. Nil when the
	// response carried no contrast data for this item.
	ContrastData []ContrastSample `json:"contrastdata,omitempty"`
}

// ContrastSample is one color contrast measurement. On the wire it is the
// array [ratio, foreground, background, pass].
type ContrastSample struct {
	// Ratio keeps the number exactly as the API wrote it.
	Ratio      json.Number
	Foreground string
	Background string
	Pass       bool
}

// UnmarshalJSON decodes the four element array form.
func (c *ContrastSample) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedContrastSample, err)
	}
	if len(fields) != 4 {
		return fmt.Errorf("%w: got %d elements", ErrMalformedContrastSample, len(fields))
	}

	var sample ContrastSample
	if err := json.Unmarshal(fields[0], &sample.Ratio); err != nil {
		return fmt.Errorf("%w: ratio: %w", ErrMalformedContrastSample, err)
	}
	if err := json.Unmarshal(fields[1], &sample.Foreground); err != nil {
		return fmt.Errorf("%w: foreground: %w", ErrMalformedContrastSample, err)
	}
	if err := json.Unmarshal(fields[2], &sample.Background); err != nil {
		return fmt.Errorf("%w: background: %w", ErrMalformedContrastSample, err)
	}
	if err := json.Unmarshal(fields[3], &sample.Pass); err != nil {
		return fmt.Errorf("%w: pass: %w", ErrMalformedContrastSample, err)
	}

	*c = sample
	return nil
}

// MarshalJSON encodes the sample back into the four element array form.
func (c ContrastSample) MarshalJSON() ([]byte, error) {
	ratio := c.Ratio
	if ratio == "" {
		ratio = "0"
	}
	return json.Marshal([]any{ratio, c.Foreground, c.Background, c.Pass})
}

// wireStatus is the object form of "status" used by the WAVE API.
type wireStatus struct {
	Success        bool   `json:"success"`
	Error          string `json:"error"`
	HTTPStatusCode int    `json:"httpstatuscode"`
}

// UnmarshalJSON accepts both status shapes seen from the WAVE API:
// a plain string ("ok" or "error" with a sibling "message") and an object
// ({"success": bool, "error": "...", "httpstatuscode": 200}). A response
// without any status is treated as successful.
func (r *AccessibilityReport) UnmarshalJSON(data []byte) error {
	var wire struct {
		Status     json.RawMessage `json:"status"`
		Message    string          `json:"message"`
		Statistics *Statistics     `json:"statistics"`
		Categories json.RawMessage `json:"categories"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	categories, err := decodeOrderedMap[Category](wire.Categories)
	if err != nil {
		return fmt.Errorf("invalid categories: %w", err)
	}

	decoded := AccessibilityReport{
		Status:     StatusOK,
		Message:    wire.Message,
		Statistics: wire.Statistics,
		Categories: categories,
	}

	raw := bytes.TrimSpace(wire.Status)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		// no status field
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("invalid status: %w", err)
		}
		if Status(s) == StatusError {
			decoded.Status = StatusError
		}
	case raw[0] == '{':
		var ws wireStatus
		if err := json.Unmarshal(raw, &ws); err != nil {
			return fmt.Errorf("invalid status: %w", err)
		}
		decoded.HTTPStatusCode = ws.HTTPStatusCode
		if !ws.Success {
			decoded.Status = StatusError
			if decoded.Message == "" {
				decoded.Message = ws.Error
			}
		}
	default:
		return fmt.Errorf("invalid status: unexpected %s", string(raw))
	}

	if decoded.Status == StatusError && decoded.Message == "" {
		decoded.Message = "unknown error"
	}

	*r = decoded
	return nil
}

// OK reports whether the report represents a successful scan.
func (r *AccessibilityReport) OK() bool {
	return r != nil && r.Status != StatusError
}

// DecodeReport parses a WAVE API response body.
func DecodeReport(data []byte) (*AccessibilityReport, error) {
	var report AccessibilityReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
