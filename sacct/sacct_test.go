package sacct

import (
	"io"
	"strings"
	"testing"
	"time"

	"slurmacct/common"
)

func init() {
	// The skip paths log warnings, keep test output quiet.
	common.Log.SetStderr(io.Discard)
}

var testSchema = Schema{
	"JobID", "JobName", "User", "Account", "Partition", "QOS", "State",
	"Submit", "Start", "End", "Elapsed", "TotalCPU", "UserCPU",
	"AllocCPUS", "NNodes", "MaxRSS", "MaxRSSNode", "ConsumedEnergy",
	"NodeList", "Priority",
}

func TestFromRecord(t *testing.T) {
	line := strings.Join([]string{
		"100", "relax", "walter", "chem", "hadley", "normal", "COMPLETED",
		"2026-03-04T01:00:00", "2026-03-04T02:00:00", "2026-03-04T03:00:00",
		"01:00:00", "45:00", "30:00",
		"16", "2", "4096K", "n0001.hadley0", "",
		"n[0001-0002].hadley0", "4294901757",
	}, "|")
	step, err := FromRecord(testSchema, line)
	if err != nil {
		t.Fatal(err)
	}
	if step == nil {
		t.Fatal("Record was skipped")
	}
	if step.JobID != "100" || step.User != "walter" || step.Partition != "hadley" {
		t.Fatalf("Identity fields: %v", *step)
	}
	if !step.Start.Equal(time.Date(2026, 3, 4, 2, 0, 0, 0, time.UTC)) {
		t.Fatalf("Start: %v", step.Start)
	}
	if step.Elapsed != time.Hour || step.TotalCPU != 45*time.Minute {
		t.Fatalf("Durations: %v %v", step.Elapsed, step.TotalCPU)
	}
	if step.AllocCPUS != 16 || step.NNodes != 2 {
		t.Fatalf("Counters: %d %d", step.AllocCPUS, step.NNodes)
	}
	if step.MaxRSS != 4096*1024 || step.MaxRSSNode != "n0001.hadley0" {
		t.Fatalf("MaxRSS: %g on %s", step.MaxRSS, step.MaxRSSNode)
	}
	if step.EnergyReported {
		t.Fatal("Energy should be unset")
	}
	if len(step.NodeList) != 2 || step.NodeList[0] != "n0001.hadley0" || step.NodeList[1] != "n0002.hadley0" {
		t.Fatalf("NodeList: %v", step.NodeList)
	}
	// Unmodeled fields are passed through verbatim
	if step.Extra["Priority"] != "4294901757" {
		t.Fatalf("Extra: %v", step.Extra)
	}
}

func TestFromRecordSkips(t *testing.T) {
	// Field-count mismatch is skipped with a warning, not an error
	step, err := FromRecord(testSchema, "a|b|c")
	if err != nil || step != nil {
		t.Fatalf("Mismatch: %v %v", step, err)
	}
	// Incomplete accounting is skipped
	line := strings.Join([]string{
		"100", "relax", "walter", "chem", "hadley", "normal", "RUNNING",
		"2026-03-04T01:00:00", "2026-03-04T02:00:00", "Unknown",
		"01:00:00", "45:00", "30:00",
		"16", "2", "", "", "", "n0001.hadley0", "1",
	}, "|")
	step, err = FromRecord(testSchema, line)
	if err != nil || step != nil {
		t.Fatalf("Running: %v %v", step, err)
	}
	// A garbage timestamp is an error
	line = strings.Replace(line, "RUNNING", "COMPLETED", 1)
	line = strings.Replace(line, "2026-03-04T01:00:00", "whenever", 1)
	_, err = FromRecord(testSchema, line)
	if err == nil {
		t.Fatal("Expected failure on bad timestamp")
	}
}

func TestParseSteps(t *testing.T) {
	good := strings.Join([]string{
		"100", "relax", "walter", "chem", "hadley", "normal", "COMPLETED",
		"2026-03-04T01:00:00", "2026-03-04T02:00:00", "2026-03-04T03:00:00",
		"01:00:00", "45:00", "30:00",
		"16", "2", "", "", "", "n0001.hadley0", "1",
	}, "|")
	text := good + "\n\n" + "short|line" + "\n" + good + "\n"
	steps, err := ParseSteps(testSchema, text)
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 2 {
		t.Fatalf("Steps: %d", len(steps))
	}
}
