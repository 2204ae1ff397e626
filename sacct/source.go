// Sources of raw accounting records: a live sacct invocation, a file holding a previous sacct
// dump, or an in-memory string.

package sacct

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"slurmacct/common"
	"slurmacct/process"
)

// Filters narrow the sacct query beyond the cluster's own category lists.  Each value is a
// comma-separated list, passed through to sacct.
type Filters struct {
	Accounts   string
	Partitions string
	QOSs       string
	Groups     string
	Jobs       string
	Nodes      string
	Users      string
}

// QuerySchema obtains the ordered field list of the installed sacct.

func QuerySchema(ctx context.Context, sacctPath string) (Schema, error) {
	stdout, _, err := process.RunSubprocess(ctx, sacctPath, []string{"-e"})
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(stdout)
	if len(fields) == 0 {
		return nil, fmt.Errorf("Empty field list from %s -e", sacctPath)
	}
	return Schema(fields), nil
}

// CollectFromSacct runs sacct over the accounting window and normalizes its output.  Completed
// jobs of every user are requested, with duplicate job records across cluster federations, in
// parseable pipe-delimited form.  Category filters default to the whole of each list given in
// defaults; the Filters override them or narrow further.

func CollectFromSacct(
	ctx context.Context,
	sacctPath string,
	schema Schema,
	start, end time.Time,
	accounts, partitions, qoss []string,
	filters Filters,
) ([]*Step, error) {
	args := []string{
		"-a", "-n", "-D", "-P", "-s", "R",
		"-o", strings.Join([]string(schema), ","),
		"-S", start.Format("2006-01-02T15:04:05"),
		"-E", end.Format("2006-01-02T15:04:05"),
	}
	if filters.Accounts != "" {
		args = append(args, "-A", filters.Accounts)
	} else {
		args = append(args, "-A", strings.Join(accounts, ","))
	}
	if filters.Partitions != "" {
		args = append(args, "-r", filters.Partitions)
	} else {
		args = append(args, "-r", strings.Join(partitions, ","))
	}
	if filters.QOSs != "" {
		args = append(args, "-q", filters.QOSs)
	} else {
		args = append(args, "-q", strings.Join(qoss, ","))
	}
	if filters.Groups != "" {
		args = append(args, "-g", filters.Groups)
	}
	if filters.Jobs != "" {
		args = append(args, "-j", filters.Jobs)
	}
	if filters.Nodes != "" {
		args = append(args, "-N", filters.Nodes)
	}
	if filters.Users != "" {
		args = append(args, "-u", filters.Users)
	}

	common.Log.Debugf("%s %s", sacctPath, strings.Join(args, " "))
	common.Log.Infof("Start running sacct command.")
	stdout, stderr, err := process.RunSubprocess(ctx, sacctPath, args)
	common.Log.Infof("End running sacct command.")
	if err != nil {
		return nil, fmt.Errorf("Failed to run %s: %s: %w", sacctPath, strings.TrimSpace(stderr), err)
	}
	return ParseSteps(schema, stdout)
}

// CollectFromFile normalizes a file holding raw sacct output.

func CollectFromFile(schema Schema, filename string) ([]*Step, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseSteps(schema, string(bytes))
}
