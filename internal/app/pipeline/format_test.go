package pipeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/os-libera/xalute-mobile/internal/domain"
)

func TestArtifactNaming(t *testing.T) {
	ts := time.Date(2024, 5, 1, 8, 30, 15, 900_000_000, time.UTC)

	if got := ArtifactStamp(ts, 9*time.Hour); got != "2024-05-01T17-30-15" {
		t.Fatalf("unexpected stamp %q", got)
	}
	if got := ArtifactBase("ecg", ts, 9*time.Hour, domain.LabelAbnormal); got != "ecg_2024-05-01T17-30-15_abnormal" {
		t.Fatalf("unexpected base %q", got)
	}
	if got := ArtifactStamp(ts, 0); got != "2024-05-01T08-30-15" {
		t.Fatalf("unexpected UTC stamp %q", got)
	}
	if got := SubjectTime(ts, 9*time.Hour); got != "2024-05-01 17:30" {
		t.Fatalf("unexpected subject time %q", got)
	}

	seoul := time.FixedZone("KST", 9*3600)
	if ArtifactStamp(ts.In(seoul), 9*time.Hour) != ArtifactStamp(ts, 9*time.Hour) {
		t.Fatalf("stamp must not depend on the input location")
	}
}

func TestParseVerdict(t *testing.T) {
	cases := []struct {
		body  string
		shape VerdictShape
		label domain.Label
	}{
		{`{"result":{"distance_from_median":[]}}`, ShapePresent, domain.LabelNormal},
		{`{"result":{"distance_from_median":[1.2, 3]}}`, ShapePresent, domain.LabelAbnormal},
		{`{"result":{"distance_from_median":null}}`, ShapeMissing, domain.LabelUnknown},
		{`{"result":{}}`, ShapeMissing, domain.LabelUnknown},
		{`{"other":true}`, ShapeMissing, domain.LabelUnknown},
		{`{"result":{"distance_from_median":"far"}}`, ShapeMalformed, domain.LabelUnknown},
		{`<html>bad gateway</html>`, ShapeMalformed, domain.LabelUnknown},
	}
	for _, tc := range cases {
		v := ParseVerdict([]byte(tc.body))
		if v.Shape != tc.shape {
			t.Fatalf("%s: expected shape %s, got %s", tc.body, tc.shape, v.Shape)
		}
		if v.Label() != tc.label {
			t.Fatalf("%s: expected label %s, got %s", tc.body, tc.label, v.Label())
		}
	}
	if (Verdict{Shape: ShapeFailed}).Label() != domain.LabelUnknown {
		t.Fatalf("failed verdict must be unknown")
	}
}

func TestFormatSeries(t *testing.T) {
	s := domain.Series{Timestamps: []float64{1714552215.5, 1714552215.501953}, Values: []float64{12.34567, -3}}
	want := "(12.346, 1714552215.500000) (-3.000, 1714552215.501953)"
	if got := FormatSeries(s); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if FormatSeries(domain.Series{}) != "" {
		t.Fatalf("empty series must format to empty string")
	}
}

func TestBuildBundle(t *testing.T) {
	b := BuildBundle(BundleInput{
		Stamp:       "2024-05-01T17-30-15",
		SubjectTime: "2024-05-01 17:30",
		Subject:     domain.Subject{Name: "Kim", BirthDate: "1990-01-01"},
		Resampled:   domain.Series{Timestamps: []float64{0}, Values: []float64{1}},
		TargetRate:  512,
		OriginValue: 55,
	})

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc["type"] != "batch" || doc["resourceType"] != "Bundle" {
		t.Fatalf("unexpected bundle header %v", doc)
	}

	obs := b.Entry[0].Resource
	if obs.ID != "2024-05-01T17-30-15" || obs.Status != "final" {
		t.Fatalf("unexpected observation %+v", obs)
	}
	if obs.Subject.Reference != "Patient/Kim: 1990-01-01 2024-05-01 17:30" {
		t.Fatalf("unexpected subject %q", obs.Subject.Reference)
	}
	sd := obs.Component[0].ValueSampledData
	if sd.Period != 1.953125 || sd.Origin.Value != 55 || sd.Dimensions != 2 {
		t.Fatalf("unexpected sampled data %+v", sd)
	}
	if sd.Data != "(1.000, 0.000000)" {
		t.Fatalf("unexpected data %q", sd.Data)
	}
	codings := obs.Component[0].Code.Coding
	if len(codings) != 2 || codings[0].Display != "MDC_ECG_ELEC_POTL_I" || codings[1].Code != "mV" {
		t.Fatalf("unexpected codings %+v", codings)
	}
}
