// Resource fields of an accumulator, with the labels and format verbs the reports use.

package stats

import (
	"fmt"
	"strings"
)

type Resource string

// Resources lists the reportable fields in report order.
var Resources = []Resource{
	"NumJobs", "Charge", "ServUnits", "SUPer", "NodeTime", "NTPer",
	"CPUTime", "CTPer", "TotalCPU", "SystemCPU", "UserCPU",
	"EfficiencyT", "EfficiencyU", "Timelimit", "Elapsed", "Reserved",
	"ReqCPUS", "AllocCPUS", "AveDiskRead", "AveDiskWrite", "AveRSS",
	"AveVMSize", "NSteps", "JobID", "JobIndex",
}

func ValidResource(r Resource) bool {
	for _, x := range Resources {
		if x == r {
			return true
		}
	}
	return false
}

// ResDef is the presentation metadata of a resource: the padded section label and verb of the
// per-key text report, and the column header and verb of the tabular report.
type ResDef struct {
	Label     string
	LabelVerb string
	Header    string
	CellVerb  string
	Long      string
}

var resDefs = map[Resource]ResDef{
	"NumJobs":      {"Total Number of Jobs           ", "%8d", "NumJobs", "%d", "Total Number of Jobs"},
	"Charge":       {"Total Charge                ($)", "%11.2f", "Charge ($)", "%.2f", "Total Charge ($)"},
	"ServUnits":    {"Total Service Units       (hrs)", "%11.2f", "ServUnits (hrs)", "%.2f", "Total Service Units (hrs)"},
	"SUPer":        {"Total Service Units         (%)", "%11.2f", "ServUnits (%)", "%.2f", "Total Service Units (%)"},
	"NodeTime":     {"Total Node Time           (hrs)", "%11.2f", "NodeTime (hrs)", "%.2f", "Total Node Time (hrs)"},
	"NTPer":        {"Total Node Time             (%)", "%11.2f", "NodeTime (%)", "%.2f", "Total Node Time (%)"},
	"CPUTime":      {"Total CPU Time            (hrs)", "%11.2f", "CPUTime (hrs)", "%.2f", "Total CPU Time (hrs)"},
	"CTPer":        {"Total CPU Time              (%)", "%11.2f", "CPUTime (%)", "%.2f", "Total CPU Time (%)"},
	"TotalCPU":     {"Mean Total CPU Time       (hrs)", "%11.2f", "M.TotalTime (hrs)", "%.2f", "Mean Total CPU Time (hrs)"},
	"SystemCPU":    {"Mean System CPU Time      (hrs)", "%11.2f", "M.SysTime (hrs)", "%.2f", "Mean System CPU Time (hrs)"},
	"UserCPU":      {"Mean User CPU Time        (hrs)", "%11.2f", "M.UserTime (hrs)", "%.2f", "Mean User CPU Time (hrs)"},
	"EfficiencyT":  {"Mean Job Efficiency         (%)", "%11.2f", "M.Eff.T (%)", "%.2f", "Mean Job Efficiency (%)"},
	"EfficiencyU":  {"Mean User CPU Efficiency    (%)", "%11.2f", "M.Eff.U (%)", "%.2f", "Mean User CPU Efficiency (%)"},
	"Timelimit":    {"Mean Req. Wall Clock Time (hrs)", "%11.2f", "M.ReqClockTime (hrs)", "%.2f", "Mean Req. Wall Clock Time (hrs)"},
	"Elapsed":      {"Mean Wall Clock Time      (hrs)", "%11.2f", "M.ClockTime (hrs)", "%.2f", "Mean Wall Clock Time (hrs)"},
	"Reserved":     {"Mean Queue Wait Time      (hrs)", "%11.2f", "M.WaitTime (hrs)", "%.2f", "Mean Queue Wait Time (hrs)"},
	"ReqCPUS":      {"Mean Requested CPU             ", "%11.2f", "M.ReqCPUS", "%.2f", "Mean Requested CPU"},
	"AllocCPUS":    {"Mean Allocated CPU             ", "%11.2f", "M.AllocCPUS", "%.2f", "Mean Allocated CPU"},
	"AveDiskRead":  {"Mean Disk Read             (MB)", "%11.2f", "M.DiskRead (MB)", "%.2f", "Mean Disk Read (MB)"},
	"AveDiskWrite": {"Mean Disk Write            (MB)", "%11.2f", "M.DiskWrite (MB)", "%.2f", "Mean Disk Write (MB)"},
	"AveRSS":       {"Mean RSS                   (MB)", "%11.2f", "M.RSS (MB)", "%.2f", "Mean RSS (MB)"},
	"AveVMSize":    {"Mean VM Size               (MB)", "%11.2f", "M.VMSize (MB)", "%.2f", "Mean VM Size (MB)"},
	"NSteps":       {"Mean Number of Steps           ", "%8d", "M.NSteps", "%d", "Mean Number of Steps"},
	"JobID":        {"JobID                          ", "%s", "JobID", "%s", "JobID"},
	"JobIndex":     {"JobIndex                       ", "%s", "JobIndex", "%s", "JobIndex"},
}

func Def(r Resource) ResDef {
	return resDefs[r]
}

// numeric returns a resource as a sortable number.  List-valued resources sort by their first
// element's numeric value, which for JobID mirrors sorting the ids as numbers.

func (a *Accum) numeric(r Resource) float64 {
	switch r {
	case "NumJobs":
		return float64(a.NumJobs)
	case "Charge":
		return a.Charge
	case "ServUnits":
		return a.ServUnits
	case "SUPer":
		return a.SUPer
	case "NodeTime":
		return a.NodeTime
	case "NTPer":
		return a.NTPer
	case "CPUTime":
		return a.CPUTime
	case "CTPer":
		return a.CTPer
	case "TotalCPU":
		return a.TotalCPU
	case "SystemCPU":
		return a.SystemCPU
	case "UserCPU":
		return a.UserCPU
	case "EfficiencyT":
		return a.EfficiencyT
	case "EfficiencyU":
		return a.EfficiencyU
	case "Timelimit":
		return a.Timelimit
	case "Elapsed":
		return a.Elapsed
	case "Reserved":
		return a.Reserved
	case "ReqCPUS":
		return a.ReqCPUS
	case "AllocCPUS":
		return a.AllocCPUS
	case "AveDiskRead":
		return a.AveDiskRead
	case "AveDiskWrite":
		return a.AveDiskWrite
	case "AveRSS":
		return a.AveRSS
	case "AveVMSize":
		return a.AveVMSize
	case "NSteps":
		return a.NSteps
	case "JobID":
		if len(a.JobID) > 0 {
			var n float64
			fmt.Sscanf(a.JobID[0], "%g", &n)
			return n
		}
		return 0
	case "JobIndex":
		if len(a.JobIndex) > 0 {
			return float64(a.JobIndex[0])
		}
		return 0
	}
	return 0
}

// Format renders a resource with the given verb.

func (a *Accum) Format(r Resource, verb string) string {
	switch r {
	case "NumJobs":
		return fmt.Sprintf(verb, a.NumJobs)
	case "NSteps":
		return fmt.Sprintf(verb, int(a.NSteps))
	case "JobID":
		return fmt.Sprintf(verb, strings.Join(a.JobID, ","))
	case "JobIndex":
		ids := make([]string, len(a.JobIndex))
		for i, x := range a.JobIndex {
			ids[i] = fmt.Sprintf("%d", x)
		}
		return fmt.Sprintf(verb, strings.Join(ids, ","))
	default:
		return fmt.Sprintf(verb, a.numeric(r))
	}
}
