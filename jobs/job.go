// Jobs assembled from raw accounting steps, with the derived cost and efficiency metrics.

package jobs

import (
	"math"
	"strings"
	"time"

	"slurmacct/cluster"
	"slurmacct/common"
	"slurmacct/sacct"
)

// Job is the accounting unit of the engine.  Identity and resource fields are seeded from the
// parent step (the step whose identifier is the bare job id); extremal usage fields are folded
// in from the child steps.
//
// Notes:
//     CPUTime = Elapsed * AllocCPUS = Used CPU Time
//     Elapsed = Used Wall Clock Time
//     Reserved = Queue Wait Time
//     Timelimit = Requested Wall Clock Time
//     TotalCPU = SystemCPU + UserCPU
//     EfficiencyT = TotalCPU / NodeTime
//     EfficiencyU = UserCPU / TotalCPU
type Job struct {
	JobID     string
	JobName   string
	User      string
	Group     string
	Account   string
	Division  string
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
	NodeTime  time.Duration
	ServUnits time.Duration

	ReqCPUS   int
	AllocCPUS int
	NCPUS     int
	NNodes    int
	NSteps    int

	Charge         float64
	EfficiencyT    float64
	EfficiencyU    float64
	ConsumedEnergy float64

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

	NodeList []string

	Steps []*sacct.Step
}

// seed populates the Job from its parent step and computes the derived metrics.  A duplicate
// parent record re-seeds everything, which is harmless since the records must agree.

func (job *Job) seed(step *sacct.Step, cc *cluster.Cluster) {
	job.JobID, _, _ = cutStepSuffix(step.JobID)
	job.JobName = step.JobName
	job.User = step.User
	job.Group = step.Group
	job.Account = step.Account
	job.Partition = step.Partition
	job.QOS = step.QOS
	job.Cluster = step.Cluster
	job.State = step.State
	job.ExitCode = step.ExitCode
	job.Submit = step.Submit
	job.Eligible = step.Eligible
	job.Start = step.Start
	job.End = step.End
	job.Timelimit = step.Timelimit
	job.Reserved = step.Reserved
	job.Elapsed = step.Elapsed
	job.TotalCPU = step.TotalCPU
	job.SystemCPU = step.SystemCPU
	job.UserCPU = step.UserCPU
	job.CPUTime = step.CPUTime
	job.ReqCPUS = step.ReqCPUS
	job.AllocCPUS = step.AllocCPUS
	job.NCPUS = step.NCPUS
	job.NNodes = step.NNodes
	job.NSteps = 0
	job.MaxRSS = step.MaxRSS
	job.AveRSS = step.AveRSS
	job.MaxVMSize = step.MaxVMSize
	job.AveVMSize = step.AveVMSize
	job.MaxDiskRead = step.MaxDiskRead
	job.AveDiskRead = step.AveDiskRead
	job.MaxDiskWrite = step.MaxDiskWrite
	job.AveDiskWrite = step.AveDiskWrite
	job.MaxRSSNode = step.MaxRSSNode
	job.MaxVMSizeNode = step.MaxVMSizeNode
	job.MaxDiskReadNode = step.MaxDiskReadNode
	job.MaxDiskWriteNode = step.MaxDiskWriteNode
	job.NodeList = step.NodeList

	var cpulist []string
	if part, found := cc.Partitions[job.Partition]; found {
		cpulist = expandCPUList(job, cc.Nodes, part.Shared)
	} else {
		common.Log.Warningf("Job %q has an undefined partition %q, ignore.",
			job.JobID, job.Partition)
	}

	if acct, found := cc.Accounts[job.Account]; found {
		job.Division = acct.Division
	} else {
		job.Division = "UNKNOWN"
	}

	elapsed := job.Elapsed.Seconds()
	job.NodeTime = scaleSeconds(elapsed * float64(len(cpulist)))
	modifiers := 0.0
	for _, node := range cpulist {
		modifiers += cc.Nodes[node].Modifier
	}
	job.ServUnits = scaleSeconds(elapsed * modifiers)

	job.Charge = 0
	if part, found := cc.Partitions[job.Partition]; found {
		if qos, found := cc.QOSs[job.QOS]; found {
			if acct, found := cc.Accounts[job.Account]; found {
				job.Charge = job.ServUnits.Hours() * part.Modifier * qos.Modifier * acct.Modifier
			}
		}
	}

	job.EfficiencyT = safeRatio(job.TotalCPU.Seconds(), job.NodeTime.Seconds())
	if job.EfficiencyT > 1.0 {
		common.Log.Warningf("EfficiencyT (%g) of job %q greater than 1.", job.EfficiencyT, job.JobID)
	}
	job.EfficiencyU = safeRatio(job.UserCPU.Seconds(), job.TotalCPU.Seconds())
	if job.EfficiencyU > 1.0 {
		common.Log.Warningf("EfficiencyU (%g) of job %q greater than 1.", job.EfficiencyU, job.JobID)
	}

	// The derived energy model always wins over anything the scheduler reported.
	if step.EnergyReported {
		common.Log.Warningf("Job %q has a reported ConsumedEnergy field, ignore.", job.JobID)
	}
	job.ConsumedEnergy = 0
	for _, node := range cpulist {
		nc := cc.Nodes[node]
		job.ConsumedEnergy += (nc.PowerPeak - nc.PowerIdle) / float64(nc.PPN) * job.EfficiencyT
	}
}

// fold merges a child step: it bumps the step count and keeps the extremal usage observations
// together with the node each occurred on.

func (job *Job) fold(step *sacct.Step) {
	job.NSteps++

	job.AveDiskRead = math.Max(job.AveDiskRead, step.AveDiskRead)
	job.AveDiskWrite = math.Max(job.AveDiskWrite, step.AveDiskWrite)
	job.AveRSS = math.Max(job.AveRSS, step.AveRSS)
	job.AveVMSize = math.Max(job.AveVMSize, step.AveVMSize)

	if step.MaxDiskRead > job.MaxDiskRead {
		job.MaxDiskRead = step.MaxDiskRead
		job.MaxDiskReadNode = step.MaxDiskReadNode
	}
	if step.MaxDiskWrite > job.MaxDiskWrite {
		job.MaxDiskWrite = step.MaxDiskWrite
		job.MaxDiskWriteNode = step.MaxDiskWriteNode
	}
	if step.MaxRSS > job.MaxRSS {
		job.MaxRSS = step.MaxRSS
		job.MaxRSSNode = step.MaxRSSNode
	}
	if step.MaxVMSize > job.MaxVMSize {
		job.MaxVMSize = step.MaxVMSize
		job.MaxVMSizeNode = step.MaxVMSizeNode
	}

	if step.EnergyReported {
		common.Log.Warningf("Step %q has a reported ConsumedEnergy field, ignore.", step.JobID)
	}
}

// expandCPUList enumerates the physical CPUs the job ran on, one entry per CPU, naming the node
// that hosts it.  Dedicated partitions contribute each node's full processor count.  Shared
// partitions distribute AllocCPUS evenly when it divides by the node count, and otherwise
// round-robin ("cyclic") over the node list, a pass at a time, until at least AllocCPUS slots
// have been assigned.  Unknown nodes consume their slot but contribute no entry.  Only the even
// and cyclic layouts are modeled.

func expandCPUList(job *Job, nodes map[string]*cluster.Node, shared bool) []string {
	cpulist := make([]string, 0)

	switch {
	case !shared:
		for _, node := range job.NodeList {
			nc, found := nodes[node]
			if !found {
				common.Log.Debugf("Job %q has an undefined node %q, ignore.", job.JobID, node)
				continue
			}
			for i := 0; i < nc.PPN; i++ {
				cpulist = append(cpulist, nc.Name)
			}
		}

	case job.NNodes > 0 && len(job.NodeList) > 0:
		if job.AllocCPUS%job.NNodes == 0 {
			ppn := job.AllocCPUS / job.NNodes
			for _, node := range job.NodeList {
				nc, found := nodes[node]
				if !found {
					common.Log.Debugf("Job %q has an undefined node %q, ignore.", job.JobID, node)
					continue
				}
				for i := 0; i < ppn; i++ {
					cpulist = append(cpulist, nc.Name)
				}
			}
		} else {
			cpus := 0
			for cpus < job.AllocCPUS {
				for _, node := range job.NodeList {
					cpus++
					nc, found := nodes[node]
					if !found {
						common.Log.Debugf("Job %q has an undefined node %q, ignore.", job.JobID, node)
						continue
					}
					cpulist = append(cpulist, nc.Name)
				}
			}
		}
	}

	return cpulist
}

func cutStepSuffix(stepID string) (jobID, stepName string, isStep bool) {
	return strings.Cut(stepID, ".")
}

func safeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func scaleSeconds(secs float64) time.Duration {
	if secs >= sacct.DurationUnlimited.Seconds() {
		return sacct.DurationUnlimited
	}
	return time.Duration(secs * float64(time.Second))
}
