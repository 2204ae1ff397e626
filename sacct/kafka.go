// Kafka source of raw accounting records.  Sites that ship their sacct dumps through a broker
// publish one pipe-delimited record per message on a per-cluster topic; records are consumed
// until the context expires or maxRecords have been read.

package sacct

import (
	"context"
	"errors"

	"github.com/twmb/franz-go/pkg/kgo"

	"slurmacct/common"
)

const consumerGroup = "slurmacct-ingest"

func CollectFromKafka(
	ctx context.Context,
	broker, topic string,
	schema Schema,
	maxRecords int,
) ([]*Step, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumerGroup(consumerGroup),
		kgo.ConsumeTopics(topic),
	)
	if err != nil {
		return nil, err
	}
	defer cl.Close()
	common.Log.Infof("Start collecting job steps from broker %s topic %s.", broker, topic)

	steps := make([]*Step, 0)
	for maxRecords <= 0 || len(steps) < maxRecords {
		fetches := cl.PollFetches(ctx)
		if fetches.IsClientClosed() || errors.Is(ctx.Err(), context.Canceled) ||
			errors.Is(ctx.Err(), context.DeadlineExceeded) {
			break
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			// All errors are retried internally when fetching, but non-retriable errors are
			// returned from polls so that users can notice and take action.
			for _, e := range errs {
				common.Log.Errorf("Failed to fetch from %s: %v", e.Topic, e.Err)
			}
			break
		}

		iter := fetches.RecordIter()
		for !iter.Done() {
			record := iter.Next()
			step, err := FromRecord(schema, string(record.Value))
			if err != nil {
				return nil, err
			}
			if step != nil {
				common.Log.Debugf("Read RAW step %q", step.JobID)
				steps = append(steps, step)
			}
		}
		if err := cl.CommitUncommittedOffsets(ctx); err != nil {
			common.Log.Errorf("Commit records failed: %v", err)
		}
	}

	common.Log.Infof("End collecting job steps from broker.")
	return steps, nil
}
