// Cluster topology and cost model.
//
// A topology file is an ini file with one section per cluster.  Within a section the categories
// are encoded as numbered variables with a common prefix, and each value is a colon-delimited
// record:
//
//   partition1 = name:node_multipattern:shared_flag:charge_modifier
//   qos1       = name:charge_modifier
//   nodes1     = node_multipattern:ppn:power_down:power_idle:power_peak:charge_modifier
//   account1   = name:charge_string:division:pi:pi_id:contact:charge_modifier
//
// Node multipatterns use the bracketed range syntax of the hostglob package, eg
// n[0000-0016].hadley0.  The shared_flag is "SHARED" (case-insensitively) for shared partitions,
// anything else means dedicated.

package cluster

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"slurmacct/common"
	"slurmacct/hostglob"
	"slurmacct/ini"
)

type Node struct {
	Name      string
	PPN       int
	PowerDown float64
	PowerIdle float64
	PowerPeak float64
	Modifier  float64
}

type Partition struct {
	Name     string
	Nodes    []string
	Shared   bool
	Modifier float64
}

type QOS struct {
	Name     string
	Modifier float64
}

type Account struct {
	Name      string
	ChargeStr string
	Division  string
	PIName    string
	PIID      string
	Contact   []string
	Modifier  float64
}

// Definitions holds the raw colon-delimited records of one cluster section, before expansion.
type Definitions struct {
	Partitions []string
	QOSs       []string
	Nodes      []string
	Accounts   []string
}

// Cluster is the expanded topology plus the capacity totals of the accounting window
// [Start, End].  ServUnits and CPUTime are in cpu-seconds; ServUnits is weighted by the
// per-node charge modifier.
type Cluster struct {
	Name       string
	Partitions map[string]*Partition
	QOSs       map[string]*QOS
	Nodes      map[string]*Node
	Accounts   map[string]*Account
	Start      time.Time
	End        time.Time
	NNodes     int
	NCPUs      int
	ServUnits  float64
	CPUTime    float64
	PowerDown  float64
	PowerIdle  float64
	PowerPeak  float64
}

// Load reads the topology file and expands the section for clusterName.  If clusterName is empty
// the file must define exactly one cluster, which is selected.

func Load(filename, clusterName string, start, end time.Time) (*Cluster, error) {
	input, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer input.Close()

	iniFile, err := ini.ParseIni(input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	if clusterName == "" {
		if len(iniFile) > 1 {
			return nil, fmt.Errorf("More than 1 configured cluster in %q", filename)
		}
		if len(iniFile) == 0 {
			return nil, fmt.Errorf("No cluster defined in %q", filename)
		}
		clusterName = iniFile[0].Name
	}

	var section *ini.IniSection
	for i := range iniFile {
		if iniFile[i].Name == clusterName {
			section = &iniFile[i]
			break
		}
	}
	if section == nil {
		return nil, fmt.Errorf("Cluster %q is not defined in %q", clusterName, filename)
	}

	defs := Definitions{
		Partitions: section.ValuesWithPrefix("partition"),
		QOSs:       section.ValuesWithPrefix("qos"),
		Nodes:      section.ValuesWithPrefix("nodes"),
		Accounts:   section.ValuesWithPrefix("account"),
	}
	return FromDefinitions(clusterName, defs, start, end)
}

// FromDefinitions expands raw category records into a Cluster and computes the window totals.

func FromDefinitions(name string, defs Definitions, start, end time.Time) (*Cluster, error) {
	common.Log.Infof("Start parsing configs.")

	if len(defs.Partitions) == 0 {
		return nil, fmt.Errorf("Missing partitions definition for cluster %q", name)
	}
	if len(defs.QOSs) == 0 {
		return nil, fmt.Errorf("Missing QOSs definition for cluster %q", name)
	}
	if len(defs.Nodes) == 0 {
		return nil, fmt.Errorf("Missing nodes definition for cluster %q", name)
	}
	if len(defs.Accounts) == 0 {
		return nil, fmt.Errorf("Missing accounts definition for cluster %q", name)
	}

	cc := &Cluster{
		Name:       name,
		Partitions: make(map[string]*Partition),
		QOSs:       make(map[string]*QOS),
		Nodes:      make(map[string]*Node),
		Accounts:   make(map[string]*Account),
		Start:      start,
		End:        end,
	}

	for _, s := range defs.Partitions {
		if err := cc.addPartition(s); err != nil {
			return nil, err
		}
	}
	for _, s := range defs.QOSs {
		if err := cc.addQOS(s); err != nil {
			return nil, err
		}
	}
	for _, s := range defs.Nodes {
		if err := cc.addNodes(s); err != nil {
			return nil, err
		}
	}
	for _, s := range defs.Accounts {
		if err := cc.addAccount(s); err != nil {
			return nil, err
		}
	}

	seconds := end.Sub(start).Seconds()
	cc.NNodes = len(cc.Nodes)
	for _, n := range cc.Nodes {
		cc.NCPUs += n.PPN
		cc.ServUnits += seconds * float64(n.PPN) * n.Modifier
		cc.PowerDown += n.PowerDown
		cc.PowerIdle += n.PowerIdle
		cc.PowerPeak += n.PowerPeak
	}
	cc.CPUTime = seconds * float64(cc.NCPUs)

	common.Log.Infof("End parsing configs.")
	return cc, nil
}

// "partition:node_list:shared:charge_modifier", eg hadley:n[0000-0016].hadley0:SHARED:0.00

func (cc *Cluster) addPartition(s string) error {
	tmp := splitRecord(s)
	if len(tmp) != 4 {
		return fmt.Errorf("Malformed partition definition %q", s)
	}
	modifier, err := strconv.ParseFloat(tmp[3], 64)
	if err != nil {
		return fmt.Errorf("Malformed partition definition %q: %w", s, err)
	}
	nodes, err := hostglob.ExpandMulti(tmp[1])
	if err != nil {
		return fmt.Errorf("Malformed partition definition %q: %w", s, err)
	}
	cc.Partitions[tmp[0]] = &Partition{
		Name:     tmp[0],
		Nodes:    nodes,
		Shared:   strings.EqualFold(tmp[2], "shared"),
		Modifier: modifier,
	}
	return nil
}

// "qos:charge_modifier", eg normal:0.01

func (cc *Cluster) addQOS(s string) error {
	tmp := splitRecord(s)
	if len(tmp) != 2 {
		return fmt.Errorf("Malformed qos definition %q", s)
	}
	modifier, err := strconv.ParseFloat(tmp[1], 64)
	if err != nil {
		return fmt.Errorf("Malformed qos definition %q: %w", s, err)
	}
	cc.QOSs[tmp[0]] = &QOS{Name: tmp[0], Modifier: modifier}
	return nil
}

// "node_list:ppn:power_down:power_idle:power_peak:charge_modifier", eg
// n[0000-0016].hadley0:8:0:0:0:1.00.  Every node of the expansion gets the same attributes.

func (cc *Cluster) addNodes(s string) error {
	tmp := splitRecord(s)
	if len(tmp) != 6 {
		return fmt.Errorf("Malformed nodes definition %q", s)
	}
	ppn, err := strconv.Atoi(tmp[1])
	if err != nil {
		return fmt.Errorf("Malformed nodes definition %q: %w", s, err)
	}
	attrs := make([]float64, 4)
	for i, f := range tmp[2:] {
		attrs[i], err = strconv.ParseFloat(f, 64)
		if err != nil {
			return fmt.Errorf("Malformed nodes definition %q: %w", s, err)
		}
	}
	nodes, err := hostglob.ExpandMulti(tmp[0])
	if err != nil {
		return fmt.Errorf("Malformed nodes definition %q: %w", s, err)
	}
	for _, node := range nodes {
		cc.Nodes[node] = &Node{
			Name:      node,
			PPN:       ppn,
			PowerDown: attrs[0],
			PowerIdle: attrs[1],
			PowerPeak: attrs[2],
			Modifier:  attrs[3],
		}
	}
	return nil
}

// "account:charge_string:division:PI:PI_ID:contact:charge_modifier", eg
// hadley::hadley:John Chiang <jchiang@x.edu>::Zack Powell <zackp@x.edu>:0.00.  Contacts are
// collected from both the PI field and the contact field, either of which may hold a
// comma-separated list.

func (cc *Cluster) addAccount(s string) error {
	tmp := splitRecord(s)
	if len(tmp) != 7 {
		return fmt.Errorf("Malformed account definition %q", s)
	}
	modifier, err := strconv.ParseFloat(tmp[6], 64)
	if err != nil {
		return fmt.Errorf("Malformed account definition %q: %w", s, err)
	}
	pi := tmp[3]
	contact := make([]string, 0)
	for _, x := range strings.Split(pi, ",") {
		if x != "" {
			contact = append(contact, strings.TrimSpace(x))
		}
	}
	for _, x := range strings.Split(tmp[5], ",") {
		if x != "" {
			contact = append(contact, strings.TrimSpace(x))
		}
	}
	piName, _, _ := strings.Cut(pi, "<")
	cc.Accounts[tmp[0]] = &Account{
		Name:      tmp[0],
		ChargeStr: tmp[1],
		Division:  tmp[2],
		PIName:    strings.TrimSpace(piName),
		PIID:      tmp[4],
		Contact:   contact,
		Modifier:  modifier,
	}
	return nil
}

func splitRecord(s string) []string {
	fields := strings.Split(s, ":")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// PartitionNames, QOSNames and AccountNames return the sorted category names, for building sacct
// filter arguments and reports.

func (cc *Cluster) PartitionNames() []string {
	return sortedKeys(cc.Partitions)
}

func (cc *Cluster) QOSNames() []string {
	return sortedKeys(cc.QOSs)
}

func (cc *Cluster) AccountNames() []string {
	return sortedKeys(cc.Accounts)
}

func sortedKeys[V any](m map[string]*V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
