// The usage verb: print the running utilization timeline as CSV.

package main

import (
	"context"
	"flag"

	"slurmacct/events"
	"slurmacct/report"
)

func Usage(progname string, args []string) error {
	opts := flag.NewFlagSet(progname+" usage", flag.ContinueOnError)
	sa := addSourceArgs(opts)
	outName := opts.String("output", "", "Write the CSV to this `filename` instead of stdout")
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

	out, err := openOutput(*outName)
	if err != nil {
		return err
	}
	defer out.Close()

	evs := events.Normalize(events.Collect(jobList), jobList)
	report.UsageCSV(out, evs, cc)
	return nil
}
