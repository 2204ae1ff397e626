// The summary verb: aggregate the jobs and print per-group statistics, as label/value sections
// or as a table.

package main

import (
	"context"
	"flag"
	"strings"

	"slurmacct/report"
	"slurmacct/stats"
)

func Summary(progname string, args []string) error {
	opts := flag.NewFlagSet(progname+" summary", flag.ContinueOnError)
	sa := addSourceArgs(opts)
	groupNames := opts.String("group", "",
		"Comma-separated `groups` to report, the standard summary groups if empty")
	orderby := opts.String("orderby", "",
		"Order group values by this `resource` instead of by name")
	reverse := opts.Bool("reverse", false, "Descending order")
	table := opts.Bool("table", false, "Tabular output")
	comprehensive := opts.Bool("comprehensive", false,
		"Include the contributing job ids in each section")
	outName := opts.String("output", "", "Write the report to this `filename` instead of stdout")
	if err := opts.Parse(args); err != nil {
		return err
	}
	if err := sa.resolve(); err != nil {
		return err
	}

	cc, jobList, err := sa.collectJobs(context.Background())
	if err != nil {
		return err
	}

	// The source filters already narrowed the sacct query; the same values also narrow the
	// aggregation when the records come from a file or a broker.
	filter := make(stats.Filter)
	for g, v := range map[stats.Group]string{
		"User":      sa.filters.Users,
		"Account":   sa.filters.Accounts,
		"Partition": sa.filters.Partitions,
		"QOS":       sa.filters.QOSs,
		"Group":     sa.filters.Groups,
		"JobID":     sa.filters.Jobs,
	} {
		if v != "" {
			filter[g] = strings.Split(v, ",")
		}
	}
	st, err := stats.New(jobList, cc.ServUnits, cc.CPUTime, filter)
	if err != nil {
		return err
	}

	var groups []stats.Group
	if *groupNames != "" {
		for _, g := range strings.Split(*groupNames, ",") {
			groups = append(groups, stats.Group(g))
		}
	}

	out, err := openOutput(*outName)
	if err != nil {
		return err
	}
	defer out.Close()

	if *table {
		return report.SummaryTable(out, st, cc, groups, stats.Resource(*orderby), *reverse)
	}
	return report.SummaryText(out, st, cc, groups, stats.Resource(*orderby), *reverse, *comprehensive)
}
