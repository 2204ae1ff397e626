// The export verb: push the assembled jobs to a PostgreSQL database.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"slurmacct/common"
	"slurmacct/dbexport"
)

func Export(progname string, args []string) error {
	opts := flag.NewFlagSet(progname+" export", flag.ContinueOnError)
	sa := addSourceArgs(opts)
	database := opts.String("database", "", "PostgreSQL connection `URI` (required)")
	table := opts.String("table", "", "Table `name` (default \"jobs\")")
	if err := opts.Parse(args); err != nil {
		return err
	}
	common.ApplyDefault(database, common.ExportDatabase)
	common.ApplyDefault(table, common.ExportTable)
	if *database == "" {
		return errors.New("-database is required")
	}
	if *table == "" {
		*table = "jobs"
	}
	if err := sa.resolve(); err != nil {
		return err
	}

	ctx := context.Background()
	_, jobList, err := sa.collectJobs(ctx)
	if err != nil {
		return err
	}

	n, err := dbexport.ExportJobs(ctx, *database, *table, jobList)
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d jobs.\n", n)
	return nil
}
