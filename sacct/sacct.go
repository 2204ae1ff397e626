// Raw accounting steps, as emitted by `sacct -P` with one pipe-delimited record per line.
//
// The set of fields sacct emits varies with the Slurm version, so the column layout is carried
// as an explicit Schema: the ordered field-name list, obtained from `sacct -e` or falling back
// to a built-in list.  A record is zipped positionally against the schema; known fields land in
// typed Step fields, anything else is kept verbatim in the Extra map.

package sacct

import (
	"strconv"
	"strings"
	"time"

	"slurmacct/common"
	"slurmacct/hostglob"
)

type Schema []string

// The field list of a vintage Slurm, used when the schema cannot be queried from sacct itself.
var defaultFields = []string{
	"AllocCPUS", "Account", "AssocID", "AveCPU", "AveCPUFreq",
	"AveDiskRead", "AveDiskWrite", "AvePages", "AveRSS", "AveVMSize",
	"BlockID", "Cluster", "Comment", "ConsumedEnergy", "CPUTime",
	"CPUTimeRAW", "DerivedExitCode", "Elapsed", "Eligible", "End",
	"ExitCode", "GID", "Group", "JobID", "JobName", "Layout",
	"MaxDiskRead", "MaxDiskReadNode", "MaxDiskReadTask",
	"MaxDiskWrite", "MaxDiskWriteNode", "MaxDiskWriteTask",
	"MaxPages", "MaxPagesNode", "MaxPagesTask",
	"MaxRSS", "MaxRSSNode", "MaxRSSTask",
	"MaxVMSize", "MaxVMSizeNode", "MaxVMSizeTask",
	"MinCPU", "MinCPUNode", "MinCPUTask",
	"NCPUS", "NNodes", "NodeList", "NTasks", "Priority", "Partition",
	"QOS", "QOSRAW", "ReqCPUS", "Reserved", "ResvCPU", "ResvCPURAW",
	"Start", "State", "Submit", "Suspended", "SystemCPU", "Timelimit",
	"TotalCPU", "UID", "User", "UserCPU", "WCKey", "WCKeyID",
}

func DefaultSchema() Schema {
	return Schema(defaultFields)
}

func (s Schema) Has(field string) bool {
	for _, f := range s {
		if f == field {
			return true
		}
	}
	return false
}

// Step is one normalized accounting record.  A step whose JobID has no ".<step>" suffix is the
// parent record of its job.
type Step struct {
	JobID     string
	JobName   string
	User      string
	Group     string
	Account   string
	Partition string
	QOS       string
	Cluster   string
	State     string
	ExitCode  string

	Submit   time.Time
	Eligible time.Time
	Start    time.Time
	End      time.Time

	Timelimit time.Duration
	Reserved  time.Duration
	Elapsed   time.Duration
	TotalCPU  time.Duration
	SystemCPU time.Duration
	UserCPU   time.Duration
	CPUTime   time.Duration
	Suspended time.Duration
	MinCPU    time.Duration
	ResvCPU   time.Duration

	AllocCPUS int
	ReqCPUS   int
	NCPUS     int
	NNodes    int

	// Byte quantities; zero when sacct left them blank.
	MaxRSS       float64
	AveRSS       float64
	MaxVMSize    float64
	AveVMSize    float64
	MaxDiskRead  float64
	AveDiskRead  float64
	MaxDiskWrite float64
	AveDiskWrite float64

	MaxRSSNode       string
	MaxVMSizeNode    string
	MaxDiskReadNode  string
	MaxDiskWriteNode string

	ConsumedEnergy float64
	EnergyReported bool

	NodeList []string

	// Fields the pipeline has no use for, kept verbatim.
	Extra map[string]string
}

// FromRecord zips one raw pipe-delimited line against the schema and normalizes the fields.  It
// returns nil (and no error) for records that are to be skipped: a field-count mismatch, which
// is warned about, and steps still RUNNING or PENDING.  Unparseable timestamps and durations
// are errors.

func FromRecord(schema Schema, line string) (*Step, error) {
	values := strings.Split(line, "|")
	if len(values) != len(schema) {
		common.Log.Warningf(
			"%q (%d) does not have the same size as a step record (%d), ignore.",
			line, len(values), len(schema))
		return nil, nil
	}

	step := &Step{Extra: make(map[string]string)}
	for i, field := range schema {
		if err := step.set(field, values[i]); err != nil {
			return nil, err
		}
	}

	// Only completed accounting is analyzed.
	if step.State == "RUNNING" || step.State == "PENDING" {
		return nil, nil
	}
	return step, nil
}

func (step *Step) set(field, value string) (err error) {
	switch field {
	case "JobID":
		step.JobID = value
	case "JobName":
		step.JobName = value
	case "User":
		step.User = value
	case "Group":
		step.Group = value
	case "Account":
		step.Account = value
	case "Partition":
		step.Partition = value
	case "QOS":
		step.QOS = value
	case "Cluster":
		step.Cluster = value
	case "State":
		step.State = value
	case "ExitCode":
		step.ExitCode = value
	case "Submit":
		step.Submit, err = ParseTimestamp(value)
	case "Eligible":
		step.Eligible, err = ParseTimestamp(value)
	case "Start":
		step.Start, err = ParseTimestamp(value)
	case "End":
		step.End, err = ParseTimestamp(value)
	case "Timelimit":
		step.Timelimit, err = ParseTimelapse(value)
	case "Reserved":
		step.Reserved, err = ParseTimelapse(value)
	case "Elapsed":
		step.Elapsed, err = ParseTimelapse(value)
	case "TotalCPU":
		step.TotalCPU, err = ParseTimelapse(value)
	case "SystemCPU":
		step.SystemCPU, err = ParseTimelapse(value)
	case "UserCPU":
		step.UserCPU, err = ParseTimelapse(value)
	case "CPUTime":
		step.CPUTime, err = ParseTimelapse(value)
	case "Suspended":
		step.Suspended, err = ParseTimelapse(value)
	case "MinCPU":
		step.MinCPU, err = ParseTimelapse(value)
	case "ResvCPU":
		step.ResvCPU, err = ParseTimelapse(value)
	case "AllocCPUS":
		step.AllocCPUS = atoiBestEffort(field, value)
	case "ReqCPUS":
		step.ReqCPUS = atoiBestEffort(field, value)
	case "NCPUS":
		step.NCPUS = atoiBestEffort(field, value)
	case "NNodes":
		step.NNodes = atoiBestEffort(field, value)
	case "MaxRSS":
		step.MaxRSS = ParseSize(value)
	case "AveRSS":
		step.AveRSS = ParseSize(value)
	case "MaxVMSize":
		step.MaxVMSize = ParseSize(value)
	case "AveVMSize":
		step.AveVMSize = ParseSize(value)
	case "MaxDiskRead":
		step.MaxDiskRead = ParseSize(value)
	case "AveDiskRead":
		step.AveDiskRead = ParseSize(value)
	case "MaxDiskWrite":
		step.MaxDiskWrite = ParseSize(value)
	case "AveDiskWrite":
		step.AveDiskWrite = ParseSize(value)
	case "MaxRSSNode":
		step.MaxRSSNode = value
	case "MaxVMSizeNode":
		step.MaxVMSizeNode = value
	case "MaxDiskReadNode":
		step.MaxDiskReadNode = value
	case "MaxDiskWriteNode":
		step.MaxDiskWriteNode = value
	case "ConsumedEnergy", "ConsumedEnergyRaw":
		if value != "" {
			step.ConsumedEnergy = SafeFloat(value)
			step.EnergyReported = step.ConsumedEnergy > 0
		}
	case "NodeList":
		step.NodeList, err = hostglob.ExpandMulti(value)
	default:
		step.Extra[field] = value
	}
	return
}

func atoiBestEffort(field, value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		common.Log.Debugf("Non-integer %s value %q, reset to 0.", field, value)
		return 0
	}
	return n
}

// ParseSteps normalizes every nonempty line of a raw sacct dump.

func ParseSteps(schema Schema, text string) ([]*Step, error) {
	common.Log.Infof("Start collecting job steps from strings.")
	steps := make([]*Step, 0)
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		step, err := FromRecord(schema, line)
		if err != nil {
			return nil, err
		}
		if step != nil {
			common.Log.Debugf("Read RAW step %q", step.JobID)
			steps = append(steps, step)
		}
	}
	common.Log.Infof("End collecting job steps from strings.")
	return steps, nil
}
