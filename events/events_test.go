package events

import (
	"testing"
	"time"

	"slurmacct/jobs"
)

func at(h int) time.Time {
	return time.Date(2026, 3, 4, h, 0, 0, 0, time.UTC)
}

func TestDisjointJobs(t *testing.T) {
	jl := []*jobs.Job{
		{JobID: "1", Start: at(1), End: at(2), AllocCPUS: 4, EfficiencyT: 0.5,
			ConsumedEnergy: 100, NodeList: []string{"n1"}},
		{JobID: "2", Start: at(3), End: at(4), AllocCPUS: 8, EfficiencyT: 1.0,
			ConsumedEnergy: 200, NodeList: []string{"n2", "n3"}},
	}
	evs := Normalize(Collect(jl), jl)
	if len(evs) != 4 {
		t.Fatalf("Events: %d", len(evs))
	}
	// start 1, end 1, start 2, end 2
	if evs[0].Kind != Start || evs[0].NJobs != 1 || evs[0].NCPUs != 4 || evs[0].NNodes != 1 {
		t.Fatalf("Event 0: %+v", *evs[0])
	}
	if evs[0].ECPUs != 2 || evs[0].Power != 100 {
		t.Fatalf("Event 0 usage: %+v", *evs[0])
	}
	if evs[1].Kind != End || evs[1].NJobs != 0 || evs[1].NCPUs != 0 || evs[1].NNodes != 0 {
		t.Fatalf("Event 1: %+v", *evs[1])
	}
	if evs[2].NJobs != 1 || evs[2].NCPUs != 8 || evs[2].NNodes != 2 {
		t.Fatalf("Event 2: %+v", *evs[2])
	}
	if evs[3].NJobs != 0 || evs[3].Power != 0 {
		t.Fatalf("Event 3: %+v", *evs[3])
	}
}

func TestOverlappingJobs(t *testing.T) {
	// Job 2 starts while job 1 runs, both share n1
	jl := []*jobs.Job{
		{JobID: "1", Start: at(1), End: at(3), AllocCPUS: 4, NodeList: []string{"n1"}},
		{JobID: "2", Start: at(2), End: at(4), AllocCPUS: 8, NodeList: []string{"n1", "n2"}},
	}
	evs := Normalize(Collect(jl), jl)
	if evs[1].NJobs != 2 || evs[1].NCPUs != 12 {
		t.Fatalf("Overlap event: %+v", *evs[1])
	}
	// n1 is shared, so only two distinct nodes are active
	if evs[1].NNodes != 2 {
		t.Fatalf("Overlap NNodes: %d", evs[1].NNodes)
	}
	// After job 1 ends, job 2 remains
	if evs[2].Kind != End || evs[2].NJobs != 1 || evs[2].NCPUs != 8 || evs[2].NNodes != 2 {
		t.Fatalf("End event: %+v", *evs[2])
	}
	if len(evs[2].Indices) != 1 || evs[2].Indices[0] != 1 {
		t.Fatalf("Indices: %v", evs[2].Indices)
	}
}

func TestTieBreakAndSkips(t *testing.T) {
	// A start at the same instant as an end sorts before it
	jl := []*jobs.Job{
		{JobID: "1", Start: at(1), End: at(2), AllocCPUS: 1, NodeList: []string{"n1"}},
		{JobID: "2", Start: at(2), End: at(3), AllocCPUS: 1, NodeList: []string{"n2"}},
		{JobID: "bad", Start: at(5), End: at(5)},
	}
	evs := Normalize(Collect(jl), jl)
	if len(evs) != 4 {
		t.Fatalf("Degenerate job should be skipped: %d events", len(evs))
	}
	if evs[1].Kind != Start || evs[1].NJobs != 2 {
		t.Fatalf("Tie break: %+v", *evs[1])
	}
	if evs[2].Kind != End || evs[2].NJobs != 1 {
		t.Fatalf("After tie: %+v", *evs[2])
	}
}
