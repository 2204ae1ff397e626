// The daemon verb: serve the reports over HTTP as JSON until SIGHUP or SIGTERM.

package main

import (
	"context"
	"errors"
	"flag"
	"syscall"
	"time"

	"slurmacct/cluster"
	"slurmacct/daemon"
	"slurmacct/httpsrv"
	"slurmacct/jobs"
	"slurmacct/process"
	"slurmacct/status"
)

const logTag = "slurmacct"

func Daemon(progname string, args []string) error {
	opts := flag.NewFlagSet(progname+" daemon", flag.ContinueOnError)
	sa := addSourceArgs(opts)
	port := opts.Int("port", 8087, "Listen on this `port`")
	tlsKey := opts.String("tls-key", "", "TLS key `filename`, enables HTTPS with -tls-cert")
	tlsCert := opts.String("tls-cert", "", "TLS certificate `filename`")
	if err := opts.Parse(args); err != nil {
		return err
	}
	if (*tlsKey == "") != (*tlsCert == "") {
		return errors.New("-tls-key and -tls-cert go together")
	}
	if err := sa.resolve(); err != nil {
		return err
	}

	status.Start(logTag)

	// Each request carries its own window, so the one computed by resolve() is used only as a
	// default by the source closure.
	source := func(ctx context.Context, clusterName string, from, to time.Time) (*cluster.Cluster, []*jobs.Job, error) {
		req := *sa
		if clusterName != "" {
			req.clusterName = clusterName
		}
		req.from = from
		req.to = to
		return req.collectJobs(ctx)
	}

	handler := daemon.New(source, sa.verbose).Handler()
	var programFailed bool
	failed := func(err error) {
		programFailed = true
	}
	var s *httpsrv.Server
	if *tlsKey != "" {
		s = httpsrv.NewTLS(sa.verbose, *port, handler, *tlsKey, *tlsCert, failed)
	} else {
		s = httpsrv.New(sa.verbose, *port, handler, failed)
	}
	go s.Start()

	process.WaitForSignal(syscall.SIGHUP, syscall.SIGTERM)
	s.Stop()

	if programFailed {
		return errors.New("HTTP server failed to start, or errored out")
	}
	return nil
}
