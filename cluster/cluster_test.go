package cluster

import (
	"os"
	"path"
	"testing"
	"time"
)

var testDefs = Definitions{
	Partitions: []string{"hadley:n[0001-0002].hadley0:DEDICATED:1.50"},
	QOSs:       []string{"normal:1.00"},
	Nodes:      []string{"n[0001-0002].hadley0:8:100:200:400:1.00"},
	Accounts:   []string{"hadley:recharge:es:John Chiang <jchiang@x.edu>:501:Zack Powell <zackp@x.edu>, Ops <ops@x.edu>:0.75"},
}

func TestFromDefinitions(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	cc, err := FromDefinitions("hadley", testDefs, start, end)
	if err != nil {
		t.Fatal(err)
	}
	if cc.Name != "hadley" {
		t.Fatalf("Name: %s", cc.Name)
	}

	p := cc.Partitions["hadley"]
	if p == nil {
		t.Fatal("Missing partition")
	}
	if p.Shared {
		t.Fatal("Partition should be dedicated")
	}
	if p.Modifier != 1.5 {
		t.Fatalf("Partition modifier: %g", p.Modifier)
	}
	if len(p.Nodes) != 2 || p.Nodes[0] != "n0001.hadley0" || p.Nodes[1] != "n0002.hadley0" {
		t.Fatalf("Partition nodes: %v", p.Nodes)
	}

	n := cc.Nodes["n0002.hadley0"]
	if n == nil {
		t.Fatal("Missing node")
	}
	if n.PPN != 8 || n.PowerDown != 100 || n.PowerIdle != 200 || n.PowerPeak != 400 {
		t.Fatalf("Node attributes: %v", *n)
	}

	a := cc.Accounts["hadley"]
	if a == nil {
		t.Fatal("Missing account")
	}
	if a.PIName != "John Chiang" {
		t.Fatalf("PIName: %s", a.PIName)
	}
	if a.Division != "es" {
		t.Fatalf("Division: %s", a.Division)
	}
	if len(a.Contact) != 3 || a.Contact[0] != "John Chiang <jchiang@x.edu>" ||
		a.Contact[1] != "Zack Powell <zackp@x.edu>" || a.Contact[2] != "Ops <ops@x.edu>" {
		t.Fatalf("Contact: %v", a.Contact)
	}

	// 2 nodes x 8 cpus x 86400s
	if cc.NNodes != 2 || cc.NCPUs != 16 {
		t.Fatalf("Totals: %d nodes %d cpus", cc.NNodes, cc.NCPUs)
	}
	if cc.CPUTime != 16*86400 {
		t.Fatalf("CPUTime: %g", cc.CPUTime)
	}
	if cc.ServUnits != 16*86400 {
		t.Fatalf("ServUnits: %g", cc.ServUnits)
	}
	if cc.PowerPeak != 800 {
		t.Fatalf("PowerPeak: %g", cc.PowerPeak)
	}
}

func TestMissingCategories(t *testing.T) {
	start := time.Now()
	defs := testDefs
	defs.QOSs = nil
	if _, err := FromDefinitions("x", defs, start, start); err == nil {
		t.Fatal("Expected failure on missing QOSs")
	}
	defs = testDefs
	defs.Accounts = nil
	if _, err := FromDefinitions("x", defs, start, start); err == nil {
		t.Fatal("Expected failure on missing accounts")
	}
}

func TestLoad(t *testing.T) {
	content := `# Test topology
[hadley]
partition1 = hadley:n[0001-0002].hadley0:SHARED:0.00
qos1 = normal:0.01
nodes1 = n[0001-0002].hadley0:8:0:0:0:1.00
account1 = hadley::es:pi <pi@x.edu>::contact <c@x.edu>:0.00
`
	fn := path.Join(t.TempDir(), "topology.cfg")
	if err := os.WriteFile(fn, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	// Unnamed selection works when the file has a single section
	cc, err := Load(fn, "", start, end)
	if err != nil {
		t.Fatal(err)
	}
	if cc.Name != "hadley" {
		t.Fatalf("Selected cluster: %s", cc.Name)
	}
	if !cc.Partitions["hadley"].Shared {
		t.Fatal("Partition should be shared")
	}

	// Named selection of an absent section fails
	if _, err := Load(fn, "absent", start, end); err == nil {
		t.Fatal("Expected failure on absent cluster")
	}
}

func TestLoadAmbiguous(t *testing.T) {
	content := `[a]
partition1 = p:n1:SHARED:0.0
qos1 = q:0.0
nodes1 = n1:8:0:0:0:1.0
account1 = a::d:p::c:0.0
[b]
partition1 = p:n1:SHARED:0.0
qos1 = q:0.0
nodes1 = n1:8:0:0:0:1.0
account1 = a::d:p::c:0.0
`
	fn := path.Join(t.TempDir(), "topology.cfg")
	if err := os.WriteFile(fn, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	if _, err := Load(fn, "", now, now); err == nil {
		t.Fatal("Expected failure on ambiguous cluster")
	}
	cc, err := Load(fn, "b", now, now)
	if err != nil {
		t.Fatal(err)
	}
	if cc.Name != "b" {
		t.Fatalf("Selected cluster: %s", cc.Name)
	}
}
