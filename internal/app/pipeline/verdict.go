package pipeline

import (
	"bytes"
	"encoding/json"

	"github.com/os-libera/xalute-mobile/internal/domain"
)

// VerdictShape tells which branch of the predict response parsing applied.
type VerdictShape int

const (
	ShapePresent VerdictShape = iota
	ShapeMissing
	ShapeMalformed
	ShapeFailed
)

func (s VerdictShape) String() string {
	switch s {
	case ShapePresent:
		return "present"
	case ShapeMissing:
		return "missing"
	case ShapeMalformed:
		return "malformed"
	default:
		return "failed"
	}
}

// Verdict is the parsed predict response.
type Verdict struct {
	Shape     VerdictShape
	Distances []json.RawMessage
}

func (v Verdict) Label() domain.Label {
	if v.Shape != ShapePresent {
		return domain.LabelUnknown
	}
	if len(v.Distances) == 0 {
		return domain.LabelNormal
	}
	return domain.LabelAbnormal
}

type predictEnvelope struct {
	Result *struct {
		DistanceFromMedian json.RawMessage `json:"distance_from_median"`
	} `json:"result"`
}

// ParseVerdict inspects result.distance_from_median in a predict response body.
func ParseVerdict(body []byte) Verdict {
	var env predictEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Verdict{Shape: ShapeMalformed}
	}
	if env.Result == nil {
		return Verdict{Shape: ShapeMissing}
	}
	raw := bytes.TrimSpace(env.Result.DistanceFromMedian)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Verdict{Shape: ShapeMissing}
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return Verdict{Shape: ShapeMalformed}
	}
	return Verdict{Shape: ShapePresent, Distances: list}
}
