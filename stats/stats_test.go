package stats

import (
	"math"
	"testing"
	"time"

	"slurmacct/jobs"
	"slurmacct/sacct"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func testJobs() []*jobs.Job {
	return []*jobs.Job{
		{
			JobID: "200", User: "walter", Account: "chem", State: "COMPLETED",
			Submit:    time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
			End:       time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC),
			ServUnits: 8 * time.Hour, NodeTime: 8 * time.Hour, CPUTime: 8 * time.Hour,
			TotalCPU: 4 * time.Hour, UserCPU: 3 * time.Hour, SystemCPU: time.Hour,
			Elapsed: time.Hour, Charge: 5,
			ReqCPUS: 8, AllocCPUS: 8, NSteps: 2,
			AveRSS: 512 * 1024 * 1024,
		},
		{
			JobID: "100", User: "walter", Account: "chem", State: "COMPLETED",
			Submit:    time.Date(2026, 3, 5, 11, 0, 0, 0, time.UTC),
			End:       time.Date(2026, 3, 5, 13, 0, 0, 0, time.UTC),
			ServUnits: 8 * time.Hour, NodeTime: 8 * time.Hour, CPUTime: 8 * time.Hour,
			TotalCPU: 8 * time.Hour, UserCPU: 8 * time.Hour,
			Elapsed: 2 * time.Hour, Charge: 3,
			ReqCPUS: 4, AllocCPUS: 4, NSteps: 0,
			AveRSS: 512 * 1024 * 1024,
		},
		{
			JobID: "300", User: "skyler", Account: "math", State: "FAILED",
			Submit:    time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
			End:       time.Date(2026, 3, 4, 11, 0, 0, 0, time.UTC),
			ServUnits: 16 * time.Hour, NodeTime: 16 * time.Hour, CPUTime: 16 * time.Hour,
			TotalCPU: 16 * time.Hour, UserCPU: 12 * time.Hour,
			Elapsed: time.Hour, Charge: 2,
			ReqCPUS: 16, AllocCPUS: 16, NSteps: 1,
		},
	}
}

func TestAggregation(t *testing.T) {
	// A 2x8cpu cluster over 2 hours: 16 cpus x 7200s
	windowCPUSecs := 16.0 * 7200
	st, err := New(testJobs(), windowCPUSecs, windowCPUSecs, nil)
	if err != nil {
		t.Fatal(err)
	}

	a := st.Get("User", "walter")
	if a == nil {
		t.Fatal("Missing group value")
	}
	if a.NumJobs != 2 {
		t.Fatalf("NumJobs: %d", a.NumJobs)
	}
	if a.Charge != 8 {
		t.Fatalf("Charge: %g", a.Charge)
	}
	// Totals in hours
	if !approx(a.ServUnits, 16) || !approx(a.NodeTime, 16) || !approx(a.CPUTime, 16) {
		t.Fatalf("Hour totals: %g %g %g", a.ServUnits, a.NodeTime, a.CPUTime)
	}
	// 16 su-hours of 32 cpu-hours delivered
	if !approx(a.SUPer, 50) || !approx(a.NTPer, 50) || !approx(a.CTPer, 50) {
		t.Fatalf("Percentages: %g %g %g", a.SUPer, a.NTPer, a.CTPer)
	}
	// Group efficiency from the sums: 12h cpu over 16h node
	if !approx(a.EfficiencyT, 75) {
		t.Fatalf("EfficiencyT: %g", a.EfficiencyT)
	}
	// 11h user over 12h total
	if !approx(a.EfficiencyU, 11.0/12.0*100) {
		t.Fatalf("EfficiencyU: %g", a.EfficiencyU)
	}
	// Means per job
	if !approx(a.TotalCPU, 6) || !approx(a.Elapsed, 1.5) {
		t.Fatalf("Means: %g %g", a.TotalCPU, a.Elapsed)
	}
	if !approx(a.ReqCPUS, 6) || !approx(a.AllocCPUS, 6) || !approx(a.NSteps, 1) {
		t.Fatalf("CPU means: %g %g %g", a.ReqCPUS, a.AllocCPUS, a.NSteps)
	}
	// 2 x 512MB over 2 jobs
	if !approx(a.AveRSS, 512) {
		t.Fatalf("AveRSS: %g", a.AveRSS)
	}
	// Contributing job ids are sorted
	if len(a.JobID) != 2 || a.JobID[0] != "100" || a.JobID[1] != "200" {
		t.Fatalf("JobID: %v", a.JobID)
	}
	if len(a.JobIndex) != 2 || a.JobIndex[0] != 0 || a.JobIndex[1] != 1 {
		t.Fatalf("JobIndex: %v", a.JobIndex)
	}

	// Time buckets from both endpoints
	if st.Get("SubmitDate", "2026-03-04").NumJobs != 2 {
		t.Fatal("SubmitDate bucket")
	}
	if st.Get("EndHour", "13").NumJobs != 1 {
		t.Fatal("EndHour bucket")
	}
	if st.Get("SubmitWeekday", "3-Wed").NumJobs != 2 {
		t.Fatal("SubmitWeekday bucket")
	}
}

func TestPercentageFallback(t *testing.T) {
	// Zero window totals fall back to the cross-group sums
	st, err := New(testJobs(), 0, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	walter := st.Get("User", "walter")
	skyler := st.Get("User", "skyler")
	if !approx(walter.SUPer, 50) || !approx(skyler.SUPer, 50) {
		t.Fatalf("Fallback SUPer: %g %g", walter.SUPer, skyler.SUPer)
	}
	if !approx(walter.SUPer+skyler.SUPer, 100) {
		t.Fatalf("Percentages should sum to 100: %g", walter.SUPer+skyler.SUPer)
	}
}

func TestOverflowClamp(t *testing.T) {
	jl := testJobs()
	jl[0].Timelimit = sacct.DurationUnlimited
	st, err := New(jl, 1, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	a := st.Get("User", "walter")
	if a.Timelimit != HoursClamp {
		t.Fatalf("Clamped mean: %g", a.Timelimit)
	}
}

func TestFilter(t *testing.T) {
	st, err := New(testJobs(), 1, 1, Filter{"State": {"COMPLETED"}})
	if err != nil {
		t.Fatal(err)
	}
	if st.Get("User", "skyler") != nil {
		t.Fatal("Filtered job leaked through")
	}
	if st.Get("User", "walter").NumJobs != 2 {
		t.Fatal("Matching jobs missing")
	}
	if _, err := New(testJobs(), 1, 1, Filter{"Nope": {"x"}}); err == nil {
		t.Fatal("Expected failure on invalid filter group")
	}
}

func TestOrderKeys(t *testing.T) {
	st, err := New(testJobs(), 1, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	keys, err := st.OrderKeys("User", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "skyler" || keys[1] != "walter" {
		t.Fatalf("Key order: %v", keys)
	}
	// walter has the larger Charge total
	keys, err = st.OrderKeys("User", "Charge", true)
	if err != nil {
		t.Fatal(err)
	}
	if keys[0] != "walter" {
		t.Fatalf("Orderby reverse: %v", keys)
	}
	if _, err := st.OrderKeys("User", "Bogus", false); err == nil {
		t.Fatal("Expected failure on invalid orderby")
	}
}
