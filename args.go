// Shared command line options and the collection pipeline behind every verb: read the topology
// file, fetch raw step records from the chosen source, assemble them into jobs, and purge the
// jobs that do not belong to the window.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"slurmacct/cluster"
	"slurmacct/common"
	"slurmacct/jobs"
	"slurmacct/sacct"
	"slurmacct/status"
)

type sourceArgs struct {
	configFile  string
	clusterName string
	sacctPath   string
	inputFile   string
	kafkaBroker string
	kafkaTopic  string
	kafkaMax    int
	fromDate    string
	toDate      string
	filters     sacct.Filters
	verbose     bool

	from, to time.Time
}

func addSourceArgs(opts *flag.FlagSet) *sourceArgs {
	sa := new(sourceArgs)
	opts.StringVar(&sa.configFile, "config", "", "Cluster topology `filename` (required)")
	opts.StringVar(&sa.clusterName, "cluster", "",
		"Cluster section of the topology file, may be omitted if the file defines one cluster")
	opts.StringVar(&sa.sacctPath, "sacct", "", "The sacct executable `filename`")
	opts.StringVar(&sa.inputFile, "file", "",
		"Read raw records from this `filename` instead of running sacct")
	opts.StringVar(&sa.kafkaBroker, "kafka-broker", "",
		"Read raw records from the topic on this `host:port` instead of running sacct")
	opts.StringVar(&sa.kafkaTopic, "kafka-topic", "", "Kafka `topic` holding the records")
	opts.IntVar(&sa.kafkaMax, "kafka-max", 0, "Stop after this many Kafka records, 0 for no limit")
	opts.StringVar(&sa.fromDate, "from", "", "Start of the window: YYYY-MM-DD, Nd or Nw (default 1d)")
	opts.StringVar(&sa.toDate, "to", "", "End of the window, inclusive day (default 1d)")
	opts.StringVar(&sa.filters.Accounts, "account", "", "Comma-separated account filter")
	opts.StringVar(&sa.filters.Partitions, "partition", "", "Comma-separated partition filter")
	opts.StringVar(&sa.filters.QOSs, "qos", "", "Comma-separated QOS filter")
	opts.StringVar(&sa.filters.Groups, "group-name", "", "Comma-separated unix group filter")
	opts.StringVar(&sa.filters.Jobs, "job", "", "Comma-separated job id filter")
	opts.StringVar(&sa.filters.Nodes, "node", "", "Comma-separated node filter, ranges allowed")
	opts.StringVar(&sa.filters.Users, "user", "", "Comma-separated user filter")
	opts.BoolVar(&sa.verbose, "v", false, "Verbose (debugging) output")
	return sa
}

// resolve fills unset options from ~/.slurmacct and computes the window.

func (sa *sourceArgs) resolve() error {
	common.ApplyDefault(&sa.configFile, common.SourceConfig)
	common.ApplyDefault(&sa.clusterName, common.SourceCluster)
	common.ApplyDefault(&sa.sacctPath, common.SourceSacct)
	common.ApplyDefault(&sa.fromDate, common.SourceFrom)
	common.ApplyDefault(&sa.toDate, common.SourceTo)
	common.ApplyDefault(&sa.kafkaBroker, common.KafkaBroker)
	common.ApplyDefault(&sa.kafkaTopic, common.KafkaTopic)

	if sa.verbose {
		common.Log.LowerLevelTo(status.LogLevelInfo)
	}
	if sa.configFile == "" {
		return errors.New("-config is required")
	}
	if sa.inputFile != "" && sa.kafkaBroker != "" {
		return errors.New("At most one of -file and -kafka-broker")
	}
	if (sa.kafkaBroker == "") != (sa.kafkaTopic == "") {
		return errors.New("-kafka-broker and -kafka-topic go together")
	}
	if sa.sacctPath == "" {
		sa.sacctPath = "sacct"
	}
	if sa.fromDate == "" {
		sa.fromDate = "1d"
	}
	if sa.toDate == "" {
		sa.toDate = "1d"
	}

	var err error
	sa.from, err = common.ParseRelativeDate(sa.fromDate)
	if err != nil {
		return fmt.Errorf("Bad -from value: %w", err)
	}
	sa.to, err = common.ParseRelativeDate(sa.toDate)
	if err != nil {
		return fmt.Errorf("Bad -to value: %w", err)
	}
	// -to names an inclusive day
	sa.to = common.NextDay(sa.to)
	if !sa.from.Before(sa.to) {
		return errors.New("Empty time window")
	}
	return nil
}

// collectJobs runs the pipeline and returns the cluster and the purged job list.

func (sa *sourceArgs) collectJobs(ctx context.Context) (*cluster.Cluster, []*jobs.Job, error) {
	cc, err := cluster.Load(sa.configFile, sa.clusterName, sa.from, sa.to)
	if err != nil {
		return nil, nil, err
	}

	var schema sacct.Schema
	var steps []*sacct.Step
	switch {
	case sa.inputFile != "":
		schema = sacct.DefaultSchema()
		steps, err = sacct.CollectFromFile(schema, sa.inputFile)
	case sa.kafkaBroker != "":
		schema = sacct.DefaultSchema()
		steps, err = sacct.CollectFromKafka(ctx, sa.kafkaBroker, sa.kafkaTopic, schema, sa.kafkaMax)
	default:
		schema, err = sacct.QuerySchema(ctx, sa.sacctPath)
		if err != nil {
			return nil, nil, err
		}
		steps, err = sacct.CollectFromSacct(ctx, sa.sacctPath, schema, sa.from, sa.to,
			cc.AccountNames(), cc.PartitionNames(), cc.QOSNames(), sa.filters)
	}
	if err != nil {
		return nil, nil, err
	}

	jobList, err := jobs.Collect(steps, cc)
	if err != nil {
		return nil, nil, err
	}
	jobList = jobs.Purge(jobList, cc)
	if sa.verbose {
		common.Log.Infof("%d jobs in the window.", len(jobList))
	}
	return cc, jobList, nil
}

// openOutput opens the -output target, defaulting to stdout.

func openOutput(name string) (io.WriteCloser, error) {
	if name == "" || name == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(name)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
