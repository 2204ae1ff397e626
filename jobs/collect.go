package jobs

import (
	"fmt"

	"slurmacct/cluster"
	"slurmacct/common"
	"slurmacct/sacct"
)

// Collect assembles jobs from an ordered step list.  The steps must arrive in scheduler emission
// order: a parent record first, its step records immediately after.  A step record that does not
// follow its own job is dropped with a warning.  A duplicate parent record is tolerated if its
// identity fields agree with the job already assembled, and is fatal otherwise.

func Collect(steps []*sacct.Step, cc *cluster.Cluster) ([]*Job, error) {
	common.Log.Infof("Start collecting jobs.")

	jobList := make([]*Job, 0)
	seen := make(map[string]bool)

	for _, step := range steps {
		// The accounting source may spell the cluster differently; the configured name wins.
		step.Cluster = cc.Name
		jobID, _, isStep := cutStepSuffix(step.JobID)

		switch {
		case !isStep:
			if len(jobList) > 0 && jobList[len(jobList)-1].JobID == jobID {
				// A second parent record for the current job.
				job := jobList[len(jobList)-1]
				if job.JobName != step.JobName || job.User != step.User ||
					job.Partition != step.Partition {
					return nil, fmt.Errorf("Duplicate job %q does not match.", jobID)
				}
				common.Log.Warningf("Duplicate job %q detected.", jobID)
				job.seed(step, cc)
				job.Steps = append(job.Steps, step)
				common.Log.Debugf("Read step %q", step.JobID)
				continue
			}
			common.Log.Debugf("Initialize Job %q", jobID)
			job := &Job{}
			job.seed(step, cc)
			job.Steps = append(job.Steps, step)
			jobList = append(jobList, job)
			seen[jobID] = true
			common.Log.Debugf("Read step %q", step.JobID)

		case len(jobList) > 0 && jobList[len(jobList)-1].JobID == jobID:
			job := jobList[len(jobList)-1]
			job.fold(step)
			job.Steps = append(job.Steps, step)
			common.Log.Debugf("Read step %q", step.JobID)

		case seen[jobID]:
			// The step belongs to a previously scanned job, so the input is out of order.
			common.Log.Warningf("Step %q does not follow current Job, ignore.", step.JobID)

		default:
			common.Log.Warningf("Step %q does not have a parent, ignore.", step.JobID)
		}
	}

	common.Log.Infof("End collecting jobs.")
	return jobList, nil
}

// Purge removes jobs that do not belong to the configured topology, and jobs whose end time
// falls outside the accounting window.  sacct often over-reports jobs near window boundaries.

func Purge(jobList []*Job, cc *cluster.Cluster) []*Job {
	common.Log.Infof("Start purging jobs.")

	kept := make([]*Job, 0, len(jobList))
	for _, job := range jobList {
		switch {
		case !inPartitions(job, cc):
			common.Log.Debugf("Purge job %q with undesignated partition - %q.",
				job.JobID, job.Partition)
		case !inAccounts(job, cc):
			common.Log.Debugf("Purge job %q with undesignated account - %q.",
				job.JobID, job.Account)
		case !nodesDesignated(job, cc):
			common.Log.Debugf("Purge job %q with undesignated nodes - %v.",
				job.JobID, job.NodeList)
		case job.End.Before(cc.Start) || job.End.After(cc.End):
			common.Log.Debugf("Purge job %q not within time range.", job.JobID)
		default:
			kept = append(kept, job)
		}
	}

	common.Log.Infof("End purging jobs.")
	return kept
}

func inPartitions(job *Job, cc *cluster.Cluster) bool {
	_, found := cc.Partitions[job.Partition]
	return found
}

func inAccounts(job *Job, cc *cluster.Cluster) bool {
	_, found := cc.Accounts[job.Account]
	return found
}

func nodesDesignated(job *Job, cc *cluster.Cluster) bool {
	for _, node := range job.NodeList {
		if _, found := cc.Nodes[node]; !found {
			return false
		}
	}
	return true
}
