// Export of assembled jobs to PostgreSQL/TimescaleDB, where downstream dashboards pick them up.
// The table is created if it does not exist and rows are bulk-loaded with COPY.  Jobs already in
// the table from an earlier run of the same window are replaced, keyed on (cluster, job_id).

package dbexport

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"slurmacct/common"
	"slurmacct/jobs"
)

const createTable = `
CREATE TABLE IF NOT EXISTS %s (
  cluster text NOT NULL,
  job_id text NOT NULL,
  job_name text,
  usr text,
  grp text,
  account text,
  division text,
  partition text,
  qos text,
  state text,
  exit_code text,
  submit_time timestamptz,
  start_time timestamptz,
  end_time timestamptz,
  elapsed_secs double precision,
  total_cpu_secs double precision,
  user_cpu_secs double precision,
  system_cpu_secs double precision,
  cpu_time_secs double precision,
  node_time_secs double precision,
  serv_units_secs double precision,
  charge double precision,
  efficiency_t double precision,
  efficiency_u double precision,
  consumed_energy double precision,
  req_cpus integer,
  alloc_cpus integer,
  nnodes integer,
  nsteps integer,
  max_rss double precision,
  ave_rss double precision,
  max_vm_size double precision,
  max_disk_read double precision,
  max_disk_write double precision,
  node_list text[],
  PRIMARY KEY (cluster, job_id)
)`

var columns = []string{
	"cluster", "job_id", "job_name", "usr", "grp", "account", "division", "partition",
	"qos", "state", "exit_code", "submit_time", "start_time", "end_time",
	"elapsed_secs", "total_cpu_secs", "user_cpu_secs", "system_cpu_secs",
	"cpu_time_secs", "node_time_secs", "serv_units_secs",
	"charge", "efficiency_t", "efficiency_u", "consumed_energy",
	"req_cpus", "alloc_cpus", "nnodes", "nsteps",
	"max_rss", "ave_rss", "max_vm_size", "max_disk_read", "max_disk_write",
	"node_list",
}

// Row flattens a job into the column value list, in the order of the table columns.

func Row(job *jobs.Job) []any {
	return []any{
		job.Cluster, job.JobID, job.JobName, job.User, job.Group, job.Account,
		job.Division, job.Partition, job.QOS, job.State, job.ExitCode,
		job.Submit, job.Start, job.End,
		job.Elapsed.Seconds(), job.TotalCPU.Seconds(), job.UserCPU.Seconds(),
		job.SystemCPU.Seconds(), job.CPUTime.Seconds(), job.NodeTime.Seconds(),
		job.ServUnits.Seconds(),
		job.Charge, job.EfficiencyT, job.EfficiencyU, job.ConsumedEnergy,
		job.ReqCPUS, job.AllocCPUS, job.NNodes, job.NSteps,
		job.MaxRSS, job.AveRSS, job.MaxVMSize, job.MaxDiskRead, job.MaxDiskWrite,
		job.NodeList,
	}
}

// ExportJobs connects to databaseURI, ensures the table exists, deletes any previous rows for
// the jobs being written, and bulk-loads the job list.  It returns the number of rows written.

func ExportJobs(ctx context.Context, databaseURI, table string, jobList []*jobs.Job) (int64, error) {
	conn, err := pgx.Connect(ctx, databaseURI)
	if err != nil {
		return 0, fmt.Errorf("Unable to connect to database: %w", err)
	}
	defer conn.Close(ctx)

	ident := pgx.Identifier{table}
	if _, err := conn.Exec(ctx, fmt.Sprintf(createTable, ident.Sanitize())); err != nil {
		return 0, fmt.Errorf("Unable to create table %s: %w", table, err)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	deleteStmt := fmt.Sprintf("DELETE FROM %s WHERE cluster = $1 AND job_id = $2", ident.Sanitize())
	for _, job := range jobList {
		if _, err := tx.Exec(ctx, deleteStmt, job.Cluster, job.JobID); err != nil {
			return 0, fmt.Errorf("Unable to clear old row for job %s: %w", job.JobID, err)
		}
	}

	rows := make([][]any, len(jobList))
	for i, job := range jobList {
		rows[i] = Row(job)
	}
	n, err := tx.CopyFrom(ctx, ident, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("Bulk load failed: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	common.Log.Infof("Exported %d jobs to %s.", n, table)
	return n, nil
}
