package dbexport

import (
	"strings"
	"testing"
	"time"

	"slurmacct/jobs"
)

func TestRowShape(t *testing.T) {
	job := &jobs.Job{
		Cluster: "fox", JobID: "100", User: "walter", Account: "chem",
		Submit:  time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
		Elapsed: 90 * time.Minute, Charge: 5,
		NodeList: []string{"n1", "n2"},
	}
	row := Row(job)
	if len(row) != len(columns) {
		t.Fatalf("Row width %d, table width %d", len(row), len(columns))
	}
	if row[0] != "fox" || row[1] != "100" {
		t.Fatalf("Key columns: %v %v", row[0], row[1])
	}
	if row[14] != 5400.0 {
		t.Fatalf("elapsed_secs: %v", row[14])
	}
}

func TestTableMatchesColumns(t *testing.T) {
	for _, c := range columns {
		if !strings.Contains(createTable, "\n  "+c+" ") {
			t.Fatalf("Column %q missing from the table definition", c)
		}
	}
}
