// The jobs verb: print every assembled job in detail.

package main

import (
	"context"
	"flag"

	"slurmacct/report"
)

func Jobs(progname string, args []string) error {
	opts := flag.NewFlagSet(progname+" jobs", flag.ContinueOnError)
	sa := addSourceArgs(opts)
	steps := opts.Bool("steps", false, "Also print the underlying step records")
	outName := opts.String("output", "", "Write the report to this `filename` instead of stdout")
	if err := opts.Parse(args); err != nil {
		return err
	}
	if err := sa.resolve(); err != nil {
		return err
	}

	_, jobList, err := sa.collectJobs(context.Background())
	if err != nil {
		return err
	}

	out, err := openOutput(*outName)
	if err != nil {
		return err
	}
	defer out.Close()

	report.JobsText(out, jobList, *steps)
	return nil
}
