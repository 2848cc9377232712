package render

import (
	"encoding/json"
	"time"

	"github.com/matzehuels/diagrammer/pkg/errors"
)

// Status is the render state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Artifact is an SVG produced from one source. It is never mutated: a new
// render produces a new artifact.
type Artifact struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	SVG        []byte    `json:"-"`
	Engine     string    `json:"engine"`
	RenderedAt time.Time `json:"rendered_at"`
}

// Result is the tagged render state. Artifact is set only for StatusSuccess;
// Message and Err only for StatusError.
type Result struct {
	Status    Status
	Artifact  *Artifact
	Message   string
	Err       error
	RequestID string
}

// OK reports whether the result holds an artifact.
func (r Result) OK() bool {
	return r.Status == StatusSuccess && r.Artifact != nil
}

// Code returns the error code of a failed result.
func (r Result) Code() errors.Code {
	return errors.GetCode(r.Err)
}

type resultJSON struct {
	Status    Status    `json:"status"`
	RequestID string    `json:"request_id,omitempty"`
	Artifact  *Artifact `json:"artifact,omitempty"`
	SVG       string    `json:"svg,omitempty"`
	Message   string    `json:"message,omitempty"`
	Code      string    `json:"code,omitempty"`
}

// MarshalJSON encodes the result for API clients, inlining the SVG markup.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		Status:    r.Status,
		RequestID: r.RequestID,
		Artifact:  r.Artifact,
		Message:   r.Message,
		Code:      string(r.Code()),
	}
	if r.Artifact != nil {
		out.SVG = string(r.Artifact.SVG)
	}
	return json.Marshal(out)
}
