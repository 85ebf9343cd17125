package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the wire and SQL format of window bounds.
const DateLayout = "2006-01-02"

// ErrInvalidParams marks a malformed dispatch parameter bag.
var ErrInvalidParams = errors.New("invalid dispatch parameters")

// Window is the eligibility window of a selection: an inclusive range of
// calendar dates matched against a candidate's created date, plus the
// last_scraped cutoff at or before which a row counts as stale.
type Window struct {
	Start       string
	End         string
	StaleCutoff string
}

// CandidateQuery is the resolved input of a candidate selection.
// A nil Limit or Offset omits the clause.
type CandidateQuery struct {
	ProgramIDs []int64
	Window     Window
	Limit      *int
	Offset     *int
}

// DispatchEvent is the runtime payload of a dispatch invocation. A nil
// QueryStringParameters selects default-window mode.
type DispatchEvent struct {
	QueryStringParameters *DispatchParams `json:"queryStringParameters,omitempty"`
}

type DispatchParams struct {
	ProgramIDs FlexInts `json:"programIds"`
	Start      string   `json:"start,omitempty"`
	End        string   `json:"end,omitempty"`
	Limit      *FlexInt `json:"limit,omitempty"`
	Offset     *FlexInt `json:"offset,omitempty"`
}

// Validate checks the parameter bag. Start and end are only checked when
// both are present, since a lone bound falls back to the default window.
func (p *DispatchParams) Validate() error {
	if len(p.ProgramIDs) == 0 {
		return fmt.Errorf("%w: programIds is required", ErrInvalidParams)
	}
	if p.HasWindow() {
		start, err := time.Parse(DateLayout, p.Start)
		if err != nil {
			return fmt.Errorf("%w: start %q: %v", ErrInvalidParams, p.Start, err)
		}
		end, err := time.Parse(DateLayout, p.End)
		if err != nil {
			return fmt.Errorf("%w: end %q: %v", ErrInvalidParams, p.End, err)
		}
		if end.Before(start) {
			return fmt.Errorf("%w: end %s is before start %s", ErrInvalidParams, p.End, p.Start)
		}
	}
	if p.Limit != nil && *p.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidParams)
	}
	if p.Offset != nil && *p.Offset < 0 {
		return fmt.Errorf("%w: negative offset", ErrInvalidParams)
	}
	return nil
}

func (p *DispatchParams) HasWindow() bool {
	return p.Start != "" && p.End != ""
}

// IntPtr converts an optional FlexInt to *int.
func (f *FlexInt) IntPtr() *int {
	if f == nil {
		return nil
	}
	v := int(*f)
	return &v
}

// FlexInt accepts a JSON number or a numeric string; query string
// parameters arrive as strings, direct invocations as numbers.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	v, err := parseFlexInt(data)
	if err != nil {
		return err
	}
	*f = FlexInt(v)
	return nil
}

// FlexInts accepts an array of numbers or numeric strings, or a single
// comma-free scalar of either kind.
type FlexInts []int64

func (f *FlexInts) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = nil
		return nil
	}
	if len(data) == 0 || data[0] != '[' {
		v, err := parseFlexInt(data)
		if err != nil {
			return err
		}
		*f = FlexInts{v}
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(FlexInts, 0, len(raw))
	for _, r := range raw {
		v, err := parseFlexInt(r)
		if err != nil {
			return err
		}
		out = append(out, v)
	}
	*f = out
	return nil
}

func parseFlexInt(data []byte) (int64, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0, err
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidParams, s)
		}
		return v, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return 0, fmt.Errorf("%w: %s is not an integer", ErrInvalidParams, string(data))
	}
	v, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not an integer", ErrInvalidParams, n)
	}
	return v, nil
}
