package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestSarifLog(t *testing.T) {
	bag, fs := escapingBag(t, "adder.cap")
	var buf bytes.Buffer
	meta := SarifRunMeta{ToolName: "capsule", ToolVersion: "0.1.0", InvocationArgs: []string{"diag", "adder.cap"}}
	if err := Sarif(&buf, bag, fs, meta); err != nil {
		t.Fatalf("Sarif() error: %v", err)
	}

	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid SARIF: %v\n%s", err, buf.String())
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("log = %+v", log)
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "capsule" || len(run.Tool.Driver.Rules) != 1 || run.Tool.Driver.Rules[0].ID != "SEM3107" {
		t.Errorf("driver = %+v", run.Tool.Driver)
	}
	if len(run.Invocations) != 1 || run.Invocations[0].ExecutionSuccessful {
		t.Errorf("invocations = %+v", run.Invocations)
	}
	if len(run.Results) != 1 {
		t.Fatalf("results = %+v", run.Results)
	}
	r := run.Results[0]
	if r.Level != "error" || r.RuleID != "SEM3107" {
		t.Errorf("result = %+v", r)
	}
	region := r.Locations[0].PhysicalLocation.Region
	if region.StartLine != 2 || region.StartColumn != 9 || region.ByteLength != 1 {
		t.Errorf("region = %+v", region)
	}
	if len(r.RelatedLocations) != 1 || r.RelatedLocations[0].Message == nil {
		t.Errorf("related = %+v", r.RelatedLocations)
	}
	if len(r.Fixes) != 1 || r.Fixes[0].ArtifactChanges[0].Replacements[0].InsertedContent.Text != "move " {
		t.Errorf("fixes = %+v", r.Fixes)
	}
}
