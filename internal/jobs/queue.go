package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/formcheck/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Queue is a FIFO of tasks on a redis list: producers LPUSH, workers move
// the next task into a processing list and Ack it once the job is done.
// Tasks left in the processing list by a worker that died are put back by
// Recover, so a task is delivered at least once.
type Queue struct {
	rdb        *redis.Client
	name       string
	processing string
}

func NewQueue(rdb *redis.Client, name string) *Queue {
	return &Queue{
		rdb:        rdb,
		name:       name,
		processing: name + ":processing",
	}
}

func (q *Queue) Name() string {
	return q.name
}

func (q *Queue) ProcessingName() string {
	return q.processing
}

func (q *Queue) Enqueue(ctx context.Context, task Task) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "queue.jobs.enqueue")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("job_id", task.JobID.String()))

	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.name, payload).Err(); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next task and moves it to the
// processing list. It returns nil, nil when the timeout passes with an empty
// queue. Malformed payloads are removed from the processing list.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Task, error) {
	payload, err := q.rdb.BRPopLPush(ctx, q.name, q.processing, timeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("brpoplpush: %w", err)
	}

	task, err := decodeTask(payload)
	if err != nil {
		if remErr := q.rdb.LRem(ctx, q.processing, 1, payload).Err(); remErr != nil {
			log.Errorf("queue %s: remove malformed task: %s", q.name, remErr)
		}
		return nil, err
	}
	return task, nil
}

func decodeTask(payload string) (*Task, error) {
	var task Task
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTask, err)
	}
	if task.JobID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing job id", ErrMalformedTask)
	}
	task.payload = payload
	return &task, nil
}

// Ack removes a dequeued task from the processing list.
func (q *Queue) Ack(ctx context.Context, task Task) error {
	if task.payload == "" {
		return fmt.Errorf("task %s was not dequeued", task.JobID)
	}
	removed, err := q.rdb.LRem(ctx, q.processing, 1, task.payload).Result()
	if err != nil {
		return fmt.Errorf("lrem: %w", err)
	}
	if removed == 0 {
		log.Warnf("queue %s: task %s was not in the processing list", q.name, task.JobID)
	}
	return nil
}

// Recover puts every task of the processing list back in front of the
// queue and returns how many were moved. Run it before workers start.
func (q *Queue) Recover(ctx context.Context) (int, error) {
	moved := 0
	for {
		// newest first onto the consuming end, so the oldest is served first
		err := q.rdb.LMove(ctx, q.processing, q.name, "LEFT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, fmt.Errorf("lmove: %w", err)
		}
		moved++
	}
}

func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.name).Result()
}
