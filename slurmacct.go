// Superstructure for Slurm accounting reports.
//
// The tool assembles per-job data from sacct (or a dump of it), prices the jobs against a
// cluster topology file, and reports aggregated statistics per user, account, partition and so
// on.  Run `slurmacct help` for help.

package main

import (
	"fmt"
	"os"
	"sort"
)

type command struct {
	help    string
	handler func(arg0 string, args []string) error
}

var commandSummary = "<verb> <option> ..."

var commands = map[string]command{
	"summary": command{
		"Aggregate jobs and print per-group statistics",
		Summary,
	},
	"jobs": command{
		"Print the assembled jobs in detail",
		Jobs,
	},
	"usage": command{
		"Print the running utilization timeline as CSV",
		Usage,
	},
	"export": command{
		"Export the assembled jobs to a PostgreSQL database",
		Export,
	},
	"daemon": command{
		"Serve the reports over HTTP as JSON",
		Daemon,
	},
}

func main() {
	if len(os.Args) < 2 {
		usage(1)
	}
	if entry, found := commands[os.Args[1]]; found {
		err := entry.handler(os.Args[0], os.Args[2:])
		if err != nil {
			fmt.Fprintf(os.Stderr, "SLURMACCT FAILED\n%v\n\n", err)
			usage(1)
		}
	} else if os.Args[1] == "help" {
		usage(0)
	} else {
		usage(1)
	}
}

func usage(code int) {
	out := os.Stdout
	if code != 0 {
		out = os.Stderr
	}
	fmt.Fprintf(out, "Usage of %s:\n\n  %s %s\n\n", os.Args[0], os.Args[0], commandSummary)
	fmt.Fprintf(out, "where <verb> is one of\n\n")
	entries := make(sort.StringSlice, 0)
	for name, command := range commands {
		entries = append(entries, "  "+name+"\n    "+command.help)
	}
	sort.Sort(entries)
	for _, e := range entries {
		fmt.Fprintln(out, e)
	}
	fmt.Fprintln(out, "\nAll verbs accept -h to print verb-specific help.")
	fmt.Fprintf(out, "Defaults for common options may be placed in ~/.slurmacct.\n")
	os.Exit(code)
}
