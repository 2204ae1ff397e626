// Timeline replay of the finalized job list.  Every job contributes a start and an end event;
// a sweep over the sorted events maintains running usage totals, which drive the usage report.

package events

import (
	"sort"
	"time"

	"slurmacct/common"
	"slurmacct/jobs"
)

type Kind int

// Start sorts before End at equal timestamps so that back-to-back jobs momentarily overlap
// rather than dropping to zero.
const (
	Start Kind = 3
	End   Kind = 4
)

// Event is one timeline point with the usage totals in effect from this point on.  Index is the
// position of the triggering job in the job list; Indices are the positions of all jobs active
// after the event.
type Event struct {
	Timestamp time.Time
	Kind      Kind
	Index     int

	Indices []int
	NJobs   int
	NNodes  int
	NCPUs   int
	ECPUs   float64
	Power   float64
}

// Collect builds the sorted event list.  Jobs whose end does not lie after their start are
// skipped with a debug note.

func Collect(jobList []*jobs.Job) []*Event {
	common.Log.Infof("Start collecting job events.")

	events := make([]*Event, 0, 2*len(jobList))
	for index, job := range jobList {
		if job.Start.Before(job.End) {
			events = append(events, &Event{Timestamp: job.Start, Kind: Start, Index: index})
			events = append(events, &Event{Timestamp: job.End, Kind: End, Index: index})
		} else {
			common.Log.Debugf("Ignore Job %q with an endtime not later than startime.", job.JobID)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		return events[i].Kind < events[j].Kind
	})

	common.Log.Infof("End collecting job events.")
	return events
}

// Normalize sweeps the sorted events and fills in the running totals.  Only completed jobs are
// counted, so the first event is always a start event.  The node count is recomputed from
// scratch at every event because active jobs may share nodes.

func Normalize(events []*Event, jobList []*jobs.Job) []*Event {
	common.Log.Infof("Start normalizing job events.")

	for i, ev := range events {
		job := jobList[ev.Index]

		switch ev.Kind {
		case Start:
			if i > 0 {
				prev := events[i-1]
				ev.Indices = append(append([]int{}, prev.Indices...), ev.Index)
				ev.NJobs = prev.NJobs + 1
				ev.NCPUs = prev.NCPUs + job.AllocCPUS
				ev.ECPUs = prev.ECPUs + float64(job.AllocCPUS)*job.EfficiencyT
				ev.Power = prev.Power + job.ConsumedEnergy
			} else {
				ev.Indices = []int{ev.Index}
				ev.NJobs = 1
				ev.NCPUs = job.AllocCPUS
				ev.ECPUs = float64(job.AllocCPUS) * job.EfficiencyT
				ev.Power = job.ConsumedEnergy
			}

		case End:
			prev := events[i-1]
			ev.Indices = removeIndex(prev.Indices, ev.Index)
			ev.NJobs = prev.NJobs - 1
			ev.NCPUs = prev.NCPUs - job.AllocCPUS
			ev.ECPUs = prev.ECPUs - float64(job.AllocCPUS)*job.EfficiencyT
			ev.Power = prev.Power - job.ConsumedEnergy

		default:
			common.Log.Warningf("Unknown events.")
		}

		nodes := make(map[string]bool)
		for _, index := range ev.Indices {
			for _, node := range jobList[index].NodeList {
				nodes[node] = true
			}
		}
		ev.NNodes = len(nodes)
	}

	common.Log.Infof("End normalizing job events.")
	return events
}

func removeIndex(indices []int, index int) []int {
	out := make([]int, 0, len(indices))
	removed := false
	for _, x := range indices {
		if !removed && x == index {
			removed = true
			continue
		}
		out = append(out, x)
	}
	return out
}
