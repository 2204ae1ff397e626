// Aggregation of finalized jobs into per-group accumulators.
//
// Jobs are grouped by a fixed set of base keys (identity fields of the Job) and a fixed set of
// derived time-bucket keys computed from the submit and end timestamps.  Every group value gets
// an Accum with resource sums; Normalize then converts the raw sums into report units: hours,
// means per job, and percentages against the cluster-wide window totals.

package stats

import (
	"fmt"
	"sort"
	"time"

	"slurmacct/jobs"
	"slurmacct/sacct"
)

type Group string

// Base groups exist verbatim on a Job.
var GroupBase = []Group{
	"Cluster", "Partition", "QOS", "Division", "Group",
	"Account", "User", "State", "ExitCode", "JobID",
}

// Derived time-bucket groups, computed from the Submit and End timestamps.
var GroupExt = []Group{
	"SubmitYear", "SubmitMonth", "SubmitDay", "SubmitHour",
	"SubmitDate", "SubmitWeekday", "SubmitWeek",
	"EndYear", "EndMonth", "EndDay", "EndHour",
	"EndDate", "EndWeekday", "EndWeek",
}

// GroupSum is the group list of the default summary report.
var GroupSum = []Group{
	"Cluster", "Partition", "QOS", "Division", "Account", "User",
	"State", "ExitCode", "SubmitDate", "EndDate", "SubmitWeekday",
	"EndWeekday", "SubmitHour", "EndHour",
}

func ValidGroup(g Group) bool {
	for _, x := range GroupBase {
		if x == g {
			return true
		}
	}
	for _, x := range GroupExt {
		if x == g {
			return true
		}
	}
	return false
}

func AllGroups() []Group {
	return append(append([]Group{}, GroupBase...), GroupExt...)
}

// The value a duration sum reports once it has saturated.
const HoursClamp = 999999.99

const mb = 1024.0 * 1024.0

// Accum is the accumulator of one group value.  The unexported fields are raw duration sums;
// the exported numeric fields are only meaningful after Normalize.
type Accum struct {
	NumJobs int

	Charge float64

	servUnits time.Duration
	nodeTime  time.Duration
	cpuTime   time.Duration
	totalCPU  time.Duration
	systemCPU time.Duration
	userCPU   time.Duration
	timelimit time.Duration
	elapsed   time.Duration
	reserved  time.Duration

	// Hours (totals).
	ServUnits float64
	NodeTime  float64
	CPUTime   float64

	// Percentages of the cluster-wide window totals.
	SUPer float64
	NTPer float64
	CTPer float64

	// Mean hours per job.
	TotalCPU  float64
	SystemCPU float64
	UserCPU   float64
	Timelimit float64
	Elapsed   float64
	Reserved  float64

	// Group efficiencies, percent.
	EfficiencyT float64
	EfficiencyU float64

	// Means per job.
	ReqCPUS   float64
	AllocCPUS float64
	NSteps    float64

	// Byte sums, MB per job after Normalize.
	AveDiskRead  float64
	AveDiskWrite float64
	AveRSS       float64
	AveVMSize    float64

	// Contributing jobs: sorted ids, and indices into the input job list.
	JobID    []string
	JobIndex []int
}

func (a *Accum) add(index int, job *jobs.Job) {
	a.NumJobs++
	a.Charge += job.Charge
	a.servUnits = sacct.AddDuration(a.servUnits, job.ServUnits)
	a.nodeTime = sacct.AddDuration(a.nodeTime, job.NodeTime)
	a.cpuTime = sacct.AddDuration(a.cpuTime, job.CPUTime)
	a.totalCPU = sacct.AddDuration(a.totalCPU, job.TotalCPU)
	a.systemCPU = sacct.AddDuration(a.systemCPU, job.SystemCPU)
	a.userCPU = sacct.AddDuration(a.userCPU, job.UserCPU)
	a.timelimit = sacct.AddDuration(a.timelimit, job.Timelimit)
	a.elapsed = sacct.AddDuration(a.elapsed, job.Elapsed)
	a.reserved = sacct.AddDuration(a.reserved, job.Reserved)
	a.ReqCPUS += float64(job.ReqCPUS)
	a.AllocCPUS += float64(job.AllocCPUS)
	a.NSteps += float64(job.NSteps)
	a.AveDiskRead += job.AveDiskRead
	a.AveDiskWrite += job.AveDiskWrite
	a.AveRSS += job.AveRSS
	a.AveVMSize += job.AveVMSize
	a.JobID = append(a.JobID, job.JobID)
	a.JobIndex = append(a.JobIndex, index)
}

// Filter maps a group to the values a job must have to be included; a job is included only if
// every filtered group's value is in the allow-list.
type Filter map[Group][]string

// Stats holds one accumulator map per group.
type Stats struct {
	groups map[Group]map[string]*Accum
}

// New aggregates the job list and normalizes the accumulators.  servUnits and cpuTime are the
// cluster-wide window totals in cpu-seconds, used as the default percentage denominators.

func New(jobList []*jobs.Job, servUnits, cpuTime float64, filter Filter) (*Stats, error) {
	for g := range filter {
		if !ValidGroup(g) {
			return nil, fmt.Errorf("%q is an invalid stats group.", g)
		}
	}

	st := &Stats{groups: make(map[Group]map[string]*Accum)}
	for _, g := range AllGroups() {
		st.groups[g] = make(map[string]*Accum)
	}

	for index, job := range jobList {
		if !match(job, filter) {
			continue
		}
		for _, g := range GroupBase {
			st.accumulate(g, baseKey(job, g), index, job)
		}
		for _, g := range GroupExt {
			st.accumulate(g, extKey(job, g), index, job)
		}
	}

	st.normalize(servUnits, cpuTime)
	return st, nil
}

func (st *Stats) accumulate(g Group, key string, index int, job *jobs.Job) {
	a := st.groups[g][key]
	if a == nil {
		a = &Accum{}
		st.groups[g][key] = a
	}
	a.add(index, job)
}

func match(job *jobs.Job, filter Filter) bool {
	for g, allowed := range filter {
		var value string
		if isBase(g) {
			value = baseKey(job, g)
		} else {
			value = extKey(job, g)
		}
		ok := false
		for _, v := range allowed {
			if v == value {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func isBase(g Group) bool {
	for _, x := range GroupBase {
		if x == g {
			return true
		}
	}
	return false
}

func baseKey(job *jobs.Job, g Group) string {
	switch g {
	case "Cluster":
		return job.Cluster
	case "Partition":
		return job.Partition
	case "QOS":
		return job.QOS
	case "Division":
		return job.Division
	case "Group":
		return job.Group
	case "Account":
		return job.Account
	case "User":
		return job.User
	case "State":
		return job.State
	case "ExitCode":
		return job.ExitCode
	case "JobID":
		return job.JobID
	}
	panic("Invalid base group")
}

func extKey(job *jobs.Job, g Group) string {
	var t time.Time
	var bucket string
	switch {
	case len(g) > 6 && g[:6] == "Submit":
		t = job.Submit
		bucket = string(g[6:])
	case len(g) > 3 && g[:3] == "End":
		t = job.End
		bucket = string(g[3:])
	default:
		panic("Invalid time-bucket group")
	}
	return TimeBucket(t, bucket)
}

// TimeBucket renders one timestamp component as a grouping key.  Weekday keys are
// "<number>-<abbrev>" with Sunday as 0 so that they sort in week order; week numbers are ISO
// week numbers.

func TimeBucket(t time.Time, bucket string) string {
	switch bucket {
	case "Year":
		return t.Format("2006")
	case "Month":
		return t.Format("01")
	case "Day":
		return t.Format("02")
	case "Hour":
		return t.Format("15")
	case "Date":
		return t.Format("2006-01-02")
	case "Weekday":
		return fmt.Sprintf("%d-%s", int(t.Weekday()), t.Format("Mon"))
	case "Week":
		_, week := t.ISOWeek()
		return fmt.Sprintf("%02d", week)
	}
	panic("Invalid time bucket")
}

func (st *Stats) normalize(servUnits, cpuTime float64) {
	for _, g := range AllGroups() {
		keys := st.groups[g]

		// Percentages against the window totals, with a fallback to the cross-group sum of the
		// same field when a total is zero.
		var suSum, ntSum, ctSum time.Duration
		for _, a := range keys {
			suSum = sacct.AddDuration(suSum, a.servUnits)
			ntSum = sacct.AddDuration(ntSum, a.nodeTime)
			ctSum = sacct.AddDuration(ctSum, a.cpuTime)
		}
		for _, a := range keys {
			a.SUPer = percentage(a.servUnits, servUnits, suSum)
			a.NTPer = percentage(a.nodeTime, cpuTime, ntSum)
			a.CTPer = percentage(a.cpuTime, cpuTime, ctSum)

			a.EfficiencyT = ratioPercent(a.totalCPU, a.nodeTime)
			a.EfficiencyU = ratioPercent(a.userCPU, a.totalCPU)

			a.ServUnits = hours(a.servUnits)
			a.NodeTime = hours(a.nodeTime)
			a.CPUTime = hours(a.cpuTime)

			n := float64(a.NumJobs)
			a.TotalCPU = meanHours(a.totalCPU, n)
			a.SystemCPU = meanHours(a.systemCPU, n)
			a.UserCPU = meanHours(a.userCPU, n)
			a.Timelimit = meanHours(a.timelimit, n)
			a.Elapsed = meanHours(a.elapsed, n)
			a.Reserved = meanHours(a.reserved, n)

			a.ReqCPUS /= n
			a.AllocCPUS /= n
			a.NSteps /= n

			a.AveDiskRead /= mb * n
			a.AveDiskWrite /= mb * n
			a.AveRSS /= mb * n
			a.AveVMSize /= mb * n

			sort.Strings(a.JobID)
		}
	}
}

// percentage computes sum/denominator, falling back to the cross-group sum when the denominator
// is zero, and to zero when both are.

func percentage(d time.Duration, denominator float64, crossSum time.Duration) float64 {
	if denominator != 0 {
		return d.Seconds() / denominator * 100
	}
	if crossSum != 0 {
		return d.Seconds() / crossSum.Seconds() * 100
	}
	return 0
}

func ratioPercent(num, den time.Duration) float64 {
	if den == 0 {
		return 0
	}
	return num.Seconds() / den.Seconds() * 100
}

func hours(d time.Duration) float64 {
	if d == sacct.DurationUnlimited {
		return HoursClamp
	}
	return d.Hours()
}

func meanHours(d time.Duration, n float64) float64 {
	if d == sacct.DurationUnlimited {
		return HoursClamp
	}
	return d.Hours() / n
}

// OrderKeys returns the group-value keys of one group, sorted by key, or by the orderby
// resource when one is given.

func (st *Stats) OrderKeys(g Group, orderby Resource, reverse bool) ([]string, error) {
	if !ValidGroup(g) {
		return nil, fmt.Errorf("%q is an invalid stats group.", g)
	}
	keys := make([]string, 0, len(st.groups[g]))
	for k := range st.groups[g] {
		keys = append(keys, k)
	}
	if orderby == "" {
		sort.Strings(keys)
	} else {
		if !ValidResource(orderby) {
			return nil, fmt.Errorf("%q is an invalid Resource field.", orderby)
		}
		accums := st.groups[g]
		sort.SliceStable(keys, func(i, j int) bool {
			return accums[keys[i]].numeric(orderby) < accums[keys[j]].numeric(orderby)
		})
	}
	if reverse {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	return keys, nil
}

// Get returns the accumulator of one group value, or nil.

func (st *Stats) Get(g Group, key string) *Accum {
	return st.groups[g][key]
}

func (st *Stats) Len(g Group) int {
	return len(st.groups[g])
}
