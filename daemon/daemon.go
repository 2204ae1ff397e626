// The daemon serves the accounting reports over HTTP as JSON, so that dashboards can query a
// window on demand instead of shelling out to the command line tool.  The API surface is defined
// with huma, which gives us request validation and an OpenAPI description at /openapi.json for
// free.
//
// The daemon does not cache: every request collects and assembles the jobs for its window through
// the injected Source.  Windows are short and sacct is fast enough that this has not been a
// problem in practice.

package daemon

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"slurmacct/cluster"
	"slurmacct/common"
	"slurmacct/events"
	"slurmacct/jobs"
	"slurmacct/stats"
)

// Source collects and assembles the purged job list for one cluster and window.  The main
// program provides one backed by sacct, a file, or a Kafka topic.

type Source func(ctx context.Context, clusterName string, from, to time.Time) (*cluster.Cluster, []*jobs.Job, error)

type Daemon struct {
	source  Source
	verbose bool
}

func New(source Source, verbose bool) *Daemon {
	return &Daemon{source: source, verbose: verbose}
}

// Handler builds the API and returns the root handler to hand to the HTTP server.

func (d *Daemon) Handler() http.Handler {
	mux := http.NewServeMux()
	api := humago.New(mux, huma.DefaultConfig("slurmacct", "1.0.0"))

	huma.Register(api, huma.Operation{
		OperationID: "get-summary",
		Method:      http.MethodGet,
		Path:        "/summary",
		Summary:     "Aggregated statistics for a window, per group",
	}, d.getSummary)

	huma.Register(api, huma.Operation{
		OperationID: "get-jobs",
		Method:      http.MethodGet,
		Path:        "/jobs",
		Summary:     "Assembled jobs for a window",
	}, d.getJobs)

	huma.Register(api, huma.Operation{
		OperationID: "get-usage",
		Method:      http.MethodGet,
		Path:        "/usage",
		Summary:     "Running utilization timeline for a window",
	}, d.getUsage)

	return mux
}

// WindowParams are the query parameters common to all the endpoints.

type WindowParams struct {
	Cluster string `query:"cluster" doc:"Cluster section of the topology file, may be empty if the file defines one cluster"`
	From    string `query:"from" doc:"Start of the window: YYYY-MM-DD, Nd or Nw" default:"1d"`
	To      string `query:"to" doc:"End of the window (inclusive day): YYYY-MM-DD, Nd or Nw" default:"1d"`
}

func (d *Daemon) collect(ctx context.Context, p WindowParams) (*cluster.Cluster, []*jobs.Job, error) {
	from, err := common.ParseRelativeDate(p.From)
	if err != nil {
		return nil, nil, huma.Error400BadRequest("Bad 'from' value", err)
	}
	to, err := common.ParseRelativeDate(p.To)
	if err != nil {
		return nil, nil, huma.Error400BadRequest("Bad 'to' value", err)
	}
	// 'to' names an inclusive day
	to = common.NextDay(to)
	if d.verbose {
		common.Log.Infof("Collecting %s for (%s, %s).", p.Cluster,
			from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	cc, jobList, err := d.source(ctx, p.Cluster, from, to)
	if err != nil {
		return nil, nil, huma.Error500InternalServerError("Collection failed", err)
	}
	return cc, jobList, nil
}

type summaryInput struct {
	WindowParams
	Group   string `query:"group" doc:"Comma-separated groups, all summary groups if empty"`
	OrderBy string `query:"orderby" doc:"Resource to order the group values by"`
	Reverse bool   `query:"reverse" doc:"Descending order"`
	User    string `query:"user" doc:"Comma-separated user filter"`
	Account string `query:"account" doc:"Comma-separated account filter"`
	State   string `query:"state" doc:"Comma-separated state filter"`
}

type groupValue struct {
	Group string       `json:"group"`
	Key   string       `json:"key"`
	Stats *stats.Accum `json:"stats"`
}

type summaryOutput struct {
	Body struct {
		Cluster string       `json:"cluster"`
		From    time.Time    `json:"from"`
		To      time.Time    `json:"to"`
		Groups  []groupValue `json:"groups"`
	}
}

func (d *Daemon) getSummary(ctx context.Context, in *summaryInput) (*summaryOutput, error) {
	cc, jobList, err := d.collect(ctx, in.WindowParams)
	if err != nil {
		return nil, err
	}

	filter := make(stats.Filter)
	for g, v := range map[stats.Group]string{"User": in.User, "Account": in.Account, "State": in.State} {
		if v != "" {
			filter[g] = strings.Split(v, ",")
		}
	}
	st, err := stats.New(jobList, cc.ServUnits, cc.CPUTime, filter)
	if err != nil {
		return nil, huma.Error400BadRequest("Bad filter", err)
	}

	groups := stats.GroupSum
	if in.Group != "" {
		groups = nil
		for _, g := range strings.Split(in.Group, ",") {
			groups = append(groups, stats.Group(g))
		}
	}

	out := new(summaryOutput)
	out.Body.Cluster = cc.Name
	out.Body.From = cc.Start
	out.Body.To = cc.End
	out.Body.Groups = make([]groupValue, 0)
	for _, g := range groups {
		keys, err := st.OrderKeys(g, stats.Resource(in.OrderBy), in.Reverse)
		if err != nil {
			return nil, huma.Error400BadRequest("Bad group or orderby", err)
		}
		for _, key := range keys {
			out.Body.Groups = append(out.Body.Groups, groupValue{string(g), key, st.Get(g, key)})
		}
	}
	return out, nil
}

type jobsInput struct {
	WindowParams
}

type jobsOutput struct {
	Body struct {
		Cluster string      `json:"cluster"`
		Jobs    []*jobs.Job `json:"jobs"`
	}
}

func (d *Daemon) getJobs(ctx context.Context, in *jobsInput) (*jobsOutput, error) {
	cc, jobList, err := d.collect(ctx, in.WindowParams)
	if err != nil {
		return nil, err
	}
	out := new(jobsOutput)
	out.Body.Cluster = cc.Name
	out.Body.Jobs = jobList
	return out, nil
}

type usageInput struct {
	WindowParams
}

type usagePoint struct {
	Timestamp time.Time `json:"timestamp"`
	NJobs     int       `json:"njobs"`
	NNodes    int       `json:"nnodes"`
	NCPUs     int       `json:"ncpus"`
	ECPUs     float64   `json:"ecpus"`
	PowerKW   float64   `json:"power_kw"`
}

type usageOutput struct {
	Body struct {
		Cluster string       `json:"cluster"`
		Points  []usagePoint `json:"points"`
	}
}

func (d *Daemon) getUsage(ctx context.Context, in *usageInput) (*usageOutput, error) {
	cc, jobList, err := d.collect(ctx, in.WindowParams)
	if err != nil {
		return nil, err
	}
	evs := events.Normalize(events.Collect(jobList), jobList)
	out := new(usageOutput)
	out.Body.Cluster = cc.Name
	out.Body.Points = make([]usagePoint, len(evs))
	for i, ev := range evs {
		out.Body.Points[i] = usagePoint{
			Timestamp: ev.Timestamp,
			NJobs:     ev.NJobs,
			NNodes:    ev.NNodes,
			NCPUs:     ev.NCPUs,
			ECPUs:     ev.ECPUs,
			PowerKW:   (ev.Power + cc.PowerIdle) / 1000,
		}
	}
	return out, nil
}
