package main

import (
	"flag"
	"testing"
	"time"
)

func parseArgs(t *testing.T, args []string) (*sourceArgs, error) {
	opts := flag.NewFlagSet("slurmacct test", flag.ContinueOnError)
	sa := addSourceArgs(opts)
	if err := opts.Parse(args); err != nil {
		t.Fatal(err)
	}
	return sa, sa.resolve()
}

func TestResolveWindow(t *testing.T) {
	sa, err := parseArgs(t, []string{
		"-config", "topology.cfg", "-from", "2026-03-04", "-to", "2026-03-05",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !sa.from.Equal(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("From: %v", sa.from)
	}
	// -to names an inclusive day
	if !sa.to.Equal(time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("To: %v", sa.to)
	}
	if sa.sacctPath != "sacct" {
		t.Fatalf("Sacct default: %s", sa.sacctPath)
	}
}

func TestResolveFailures(t *testing.T) {
	if _, err := parseArgs(t, []string{"-from", "2026-03-04", "-to", "2026-03-05"}); err == nil {
		t.Fatal("Missing -config should fail")
	}
	if _, err := parseArgs(t, []string{
		"-config", "c", "-from", "2026-03-05", "-to", "2026-03-04",
	}); err == nil {
		t.Fatal("Inverted window should fail")
	}
	if _, err := parseArgs(t, []string{
		"-config", "c", "-from", "bogus", "-to", "2026-03-04",
	}); err == nil {
		t.Fatal("Bad date should fail")
	}
	if _, err := parseArgs(t, []string{
		"-config", "c", "-from", "2026-03-04", "-to", "2026-03-05",
		"-kafka-broker", "localhost:9092",
	}); err == nil {
		t.Fatal("Broker without topic should fail")
	}
	if _, err := parseArgs(t, []string{
		"-config", "c", "-from", "2026-03-04", "-to", "2026-03-05",
		"-file", "x.txt", "-kafka-broker", "b", "-kafka-topic", "t",
	}); err == nil {
		t.Fatal("Two sources should fail")
	}
}
