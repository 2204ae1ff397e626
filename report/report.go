// Text rendering of the aggregated statistics: the per-group summary in label/value and tabular
// forms, the per-job detail listing, and the usage timeline in CSV form.

package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"slurmacct/cluster"
	"slurmacct/common"
	"slurmacct/events"
	"slurmacct/hostglob"
	"slurmacct/jobs"
	"slurmacct/stats"
)

// reportResources is the resource list without the contributing-job lists, which only the
// comprehensive form includes.

func reportResources(comprehensive bool) []stats.Resource {
	rs := make([]stats.Resource, 0, len(stats.Resources))
	for _, r := range stats.Resources {
		if !comprehensive && (r == "JobID" || r == "JobIndex") {
			continue
		}
		rs = append(rs, r)
	}
	return rs
}

// SummaryText writes the summary report: for every requested group, the group values in order,
// each with an indented label/value section per resource.

func SummaryText(
	w io.Writer,
	st *stats.Stats,
	cc *cluster.Cluster,
	groups []stats.Group,
	orderby stats.Resource,
	reverse, comprehensive bool,
) error {
	common.Log.Infof("Start generating TEXT Summary.")

	if len(groups) == 0 {
		groups = stats.GroupSum
	}
	writeSummaryHeader(w, cc)

	for _, g := range groups {
		keys, err := st.OrderKeys(g, orderby, reverse)
		if err != nil {
			return err
		}
		for _, key := range keys {
			fmt.Fprintf(w, "%s - %s:\n", g, key)
			a := st.Get(g, key)
			for _, r := range reportResources(comprehensive) {
				def := stats.Def(r)
				fmt.Fprintf(w, "  %s: %s\n", def.Label, a.Format(r, def.LabelVerb))
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	common.Log.Infof("End generating TEXT Summary.")
	return nil
}

// SummaryTable writes the summary as one bordered table per group, a row per group value and a
// column per resource.

func SummaryTable(
	w io.Writer,
	st *stats.Stats,
	cc *cluster.Cluster,
	groups []stats.Group,
	orderby stats.Resource,
	reverse bool,
) error {
	common.Log.Infof("Start generating TEXT table Summary.")

	if len(groups) == 0 {
		groups = stats.GroupSum
	}
	writeSummaryHeader(w, cc)

	resources := reportResources(false)
	for _, g := range groups {
		keys, err := st.OrderKeys(g, orderby, reverse)
		if err != nil {
			return err
		}

		widths := tableWidths(st, g, keys, resources)
		fmt.Fprintf(w, "%s:\n", g)
		divider := tableDivider(widths)
		fmt.Fprint(w, divider)
		fmt.Fprint(w, tableHeader(g, widths, resources))
		fmt.Fprint(w, divider)
		for _, key := range keys {
			a := st.Get(g, key)
			row := fmt.Sprintf("|%*s|", widths[0], key)
			for i, r := range resources {
				row += fmt.Sprintf("%*s|", widths[i+1], a.Format(r, stats.Def(r).CellVerb))
			}
			fmt.Fprintln(w, row)
		}
		fmt.Fprint(w, divider)
		fmt.Fprintln(w)
	}

	common.Log.Infof("End generating TEXT table Summary.")
	return nil
}

func writeSummaryHeader(w io.Writer, cc *cluster.Cluster) {
	fmt.Fprintf(w, "Summary for period: (%s, %s)\n",
		cc.Start.Format("2006-01-02 15:04:05"), cc.End.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "%d CPU Hours (%.2f Service Units) Delivered\n\n",
		int(cc.CPUTime/3600), cc.ServUnits/3600)
}

func tableWidths(st *stats.Stats, g stats.Group, keys []string, resources []stats.Resource) []int {
	widths := make([]int, 1+len(resources))
	widths[0] = len(g)
	for _, key := range keys {
		if len(key) > widths[0] {
			widths[0] = len(key)
		}
	}
	for i, r := range resources {
		widths[i+1] = len(stats.Def(r).Header)
		for _, key := range keys {
			if n := len(st.Get(g, key).Format(r, stats.Def(r).CellVerb)); n > widths[i+1] {
				widths[i+1] = n
			}
		}
	}
	return widths
}

func tableHeader(g stats.Group, widths []int, resources []stats.Resource) string {
	buf := fmt.Sprintf("|%*s|", widths[0], string(g))
	for i, r := range resources {
		buf += fmt.Sprintf("%*s|", widths[i+1], stats.Def(r).Header)
	}
	return buf + "\n"
}

func tableDivider(widths []int) string {
	buf := "+"
	for _, n := range widths {
		buf += strings.Repeat("-", n) + "+"
	}
	return buf + "\n"
}

// JobsText writes one label/value section per job, with the node list compressed back to range
// syntax.  With verbose set, every underlying step record follows its job.

func JobsText(w io.Writer, jobList []*jobs.Job, verbose bool) {
	for _, job := range jobList {
		fmt.Fprintf(w, "JobID: %s\n", job.JobID)
		for _, f := range jobFields(job) {
			fmt.Fprintf(w, "  %s: %s\n", f.name, f.value)
		}
		if verbose {
			for _, step := range job.Steps {
				fmt.Fprintf(w, "\n  StepID: %s\n", step.JobID)
				fmt.Fprintf(w, "    State: %s\n", step.State)
				fmt.Fprintf(w, "    Elapsed: %s\n", step.Elapsed)
				fmt.Fprintf(w, "    TotalCPU: %s\n", step.TotalCPU)
				fmt.Fprintf(w, "    MaxRSS: %.0f\n", step.MaxRSS)
				fmt.Fprintf(w, "    NodeList: %s\n",
					strings.Join(hostglob.CompressHostnames(step.NodeList), ","))
			}
		}
		fmt.Fprintln(w)
	}
}

type field struct {
	name  string
	value string
}

func jobFields(job *jobs.Job) []field {
	ts := func(t time.Time) string { return t.Format("2006-01-02 15:04:05") }
	hrs := func(d time.Duration) string { return fmt.Sprintf("%.2f", d.Hours()) }
	return []field{
		{"JobName", job.JobName},
		{"User", job.User},
		{"Group", job.Group},
		{"Account", job.Account},
		{"Division", job.Division},
		{"Partition", job.Partition},
		{"QOS", job.QOS},
		{"Cluster", job.Cluster},
		{"State", job.State},
		{"ExitCode", job.ExitCode},
		{"Submit", ts(job.Submit)},
		{"Eligible", ts(job.Eligible)},
		{"Start", ts(job.Start)},
		{"End", ts(job.End)},
		{"Timelimit", hrs(job.Timelimit)},
		{"Reserved", hrs(job.Reserved)},
		{"Elapsed", hrs(job.Elapsed)},
		{"TotalCPU", hrs(job.TotalCPU)},
		{"SystemCPU", hrs(job.SystemCPU)},
		{"UserCPU", hrs(job.UserCPU)},
		{"CPUTime", hrs(job.CPUTime)},
		{"NodeTime", hrs(job.NodeTime)},
		{"ServUnits", hrs(job.ServUnits)},
		{"Charge", fmt.Sprintf("%.2f", job.Charge)},
		{"EfficiencyT", fmt.Sprintf("%.4f", job.EfficiencyT)},
		{"EfficiencyU", fmt.Sprintf("%.4f", job.EfficiencyU)},
		{"ConsumedEnergy", fmt.Sprintf("%.2f", job.ConsumedEnergy)},
		{"ReqCPUS", fmt.Sprintf("%d", job.ReqCPUS)},
		{"AllocCPUS", fmt.Sprintf("%d", job.AllocCPUS)},
		{"NCPUS", fmt.Sprintf("%d", job.NCPUS)},
		{"NNodes", fmt.Sprintf("%d", job.NNodes)},
		{"NSteps", fmt.Sprintf("%d", job.NSteps)},
		{"MaxRSS", fmt.Sprintf("%.0f", job.MaxRSS)},
		{"MaxRSSNode", job.MaxRSSNode},
		{"AveRSS", fmt.Sprintf("%.0f", job.AveRSS)},
		{"MaxVMSize", fmt.Sprintf("%.0f", job.MaxVMSize)},
		{"MaxVMSizeNode", job.MaxVMSizeNode},
		{"AveVMSize", fmt.Sprintf("%.0f", job.AveVMSize)},
		{"MaxDiskRead", fmt.Sprintf("%.0f", job.MaxDiskRead)},
		{"MaxDiskWrite", fmt.Sprintf("%.0f", job.MaxDiskWrite)},
		{"NodeList", strings.Join(hostglob.CompressHostnames(job.NodeList), ",")},
	}
}

// UsageCSV writes the event timeline as CSV: the raw running totals plus the totals as
// percentages of the cluster capacity, and the total power draw (active jobs plus the idle
// base) in kW.

func UsageCSV(w io.Writer, evs []*events.Event, cc *cluster.Cluster) {
	fmt.Fprintln(w, "timestamp,njobs,nnodes,ncpus,ecpus,power,nnodes_pct,ncpus_pct,ecpus_pct,power_kw")
	for _, ev := range evs {
		var nnPct, ncPct, ecPct float64
		if cc.NNodes > 0 {
			nnPct = float64(ev.NNodes) / float64(cc.NNodes) * 100
		}
		if cc.NCPUs > 0 {
			ncPct = float64(ev.NCPUs) / float64(cc.NCPUs) * 100
			ecPct = ev.ECPUs / float64(cc.NCPUs) * 100
		}
		fmt.Fprintf(w, "%s,%d,%d,%d,%.2f,%.2f,%.2f,%.2f,%.2f,%.3f\n",
			ev.Timestamp.Format(time.RFC3339),
			ev.NJobs, ev.NNodes, ev.NCPUs, ev.ECPUs, ev.Power,
			nnPct, ncPct, ecPct,
			(ev.Power+cc.PowerIdle)/1000)
	}
}
