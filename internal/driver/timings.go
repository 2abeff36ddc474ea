package driver

import (
	"encoding/json"
	"fmt"

	"capsule/internal/diag"
	"capsule/internal/observ"
	"capsule/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// appendTimingDiagnostic records a timing report as an info diagnostic with
// the JSON payload in its only note. It bypasses the bag limit.
func appendTimingDiagnostic(bag *diag.Bag, payload timingPayload) {
	if bag == nil {
		return
	}
	if payload.Kind == "" {
		payload.Kind = "file"
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	if payload.Path != "" {
		msg = fmt.Sprintf("%s, %s", msg, payload.Path)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	entry := diag.New(diag.SevInfo, diag.ObsTimings, source.Span{}, msg).
		WithNote(source.Span{}, string(data))
	if bag.Add(entry) {
		return
	}
	overflow := diag.NewBag(1)
	overflow.Add(entry)
	bag.Merge(overflow)
}

// TimingReport extracts the payload of a timing diagnostic.
func TimingReport(d *diag.Diagnostic) (observ.Report, bool) {
	if d == nil || d.Code != diag.ObsTimings || len(d.Notes) == 0 {
		return observ.Report{}, false
	}
	var payload timingPayload
	if err := json.Unmarshal([]byte(d.Notes[0].Msg), &payload); err != nil {
		return observ.Report{}, false
	}
	return observ.Report{TotalMS: payload.TotalMS, Phases: payload.Phases}, true
}
