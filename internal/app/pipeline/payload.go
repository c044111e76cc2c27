package pipeline

import (
	"strconv"
	"strings"

	"github.com/os-libera/xalute-mobile/internal/domain"
)

// FormatSeries renders "(value, timestamp)" pairs separated by single spaces.
func FormatSeries(s domain.Series) string {
	var b strings.Builder
	b.Grow(s.Len() * 28)
	for i := range s.Timestamps {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('(')
		b.WriteString(strconv.FormatFloat(s.Values[i], 'f', 3, 64))
		b.WriteString(", ")
		b.WriteString(strconv.FormatFloat(s.Timestamps[i], 'f', 6, 64))
		b.WriteByte(')')
	}
	return b.String()
}

// Bundle is the batch document accepted by the record endpoint.
type Bundle struct {
	Type         string        `json:"type"`
	ResourceType string        `json:"resourceType"`
	Entry        []BundleEntry `json:"entry"`
}

type BundleEntry struct {
	Request  EntryRequest `json:"request"`
	Resource Observation  `json:"resource"`
}

type EntryRequest struct {
	URL    string `json:"url"`
	Method string `json:"method"`
}

type Observation struct {
	ResourceType string         `json:"resourceType"`
	ID           string         `json:"id"`
	Component    []ObsComponent `json:"component"`
	Subject      Reference      `json:"subject"`
	Status       string         `json:"status"`
	Code         map[string]any `json:"code"`
}

type ObsComponent struct {
	Code             CodeableConcept `json:"code"`
	ValueSampledData SampledData     `json:"valueSampledData"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding"`
}

type Coding struct {
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
	System  string `json:"system,omitempty"`
}

type SampledData struct {
	Origin     Quantity `json:"origin"`
	Period     float64  `json:"period"`
	Data       string   `json:"data"`
	Dimensions int      `json:"dimensions"`
}

type Quantity struct {
	Value float64 `json:"value"`
}

type Reference struct {
	Reference string `json:"reference"`
}

// BundleInput carries what BuildBundle needs for one recording.
type BundleInput struct {
	Stamp       string
	SubjectTime string
	Subject     domain.Subject
	Resampled   domain.Series
	TargetRate  float64
	OriginValue float64
}

func BuildBundle(in BundleInput) Bundle {
	return Bundle{
		Type:         "batch",
		ResourceType: "Bundle",
		Entry: []BundleEntry{{
			Request: EntryRequest{URL: "Observation", Method: "POST"},
			Resource: Observation{
				ResourceType: "Observation",
				ID:           in.Stamp,
				Component: []ObsComponent{{
					Code: CodeableConcept{Coding: []Coding{
						{Display: "MDC_ECG_ELEC_POTL_I"},
						{Code: "mV", Display: "microvolt", System: "http:"},
					}},
					ValueSampledData: SampledData{
						Origin:     Quantity{Value: in.OriginValue},
						Period:     1.0 / in.TargetRate * 1000,
						Data:       FormatSeries(in.Resampled),
						Dimensions: 2,
					},
				}},
				Subject: Reference{Reference: "Patient/" + in.Subject.Name + ": " + in.Subject.BirthDate + " " + in.SubjectTime},
				Status:  "final",
				Code:    map[string]any{},
			},
		}},
	}
}
