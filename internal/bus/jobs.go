package bus

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	jobsKey        = "jobs:deadlines"
	jobsPayloadKey = "jobs:deadlines:payload"
)

// Jobs is the durable delayed-job queue: a sorted set keyed by job
// identity with the fire time as score, payloads in a companion hash.
// Scheduling an identity that already has a pending job replaces it.
type Jobs struct {
	rdb *redis.Client
}

func (j *Jobs) Schedule(ctx context.Context, id string, at time.Time, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	pipe := j.rdb.TxPipeline()
	pipe.ZAdd(ctx, jobsKey, redis.Z{Score: float64(at.UnixMilli()), Member: id})
	pipe.HSet(ctx, jobsPayloadKey, id, raw)
	_, err = pipe.Exec(ctx)
	return err
}

// Cancel removes a pending job. Cancelling a job that does not exist is a
// silent no-op.
func (j *Jobs) Cancel(ctx context.Context, id string) error {
	pipe := j.rdb.TxPipeline()
	pipe.ZRem(ctx, jobsKey, id)
	pipe.HDel(ctx, jobsPayloadKey, id)
	_, err := pipe.Exec(ctx)
	return err
}

func (j *Jobs) Pending(ctx context.Context, id string) (bool, error) {
	_, err := j.rdb.ZScore(ctx, jobsKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// claimScript removes one job and returns its payload in a single step.
// The score re-check makes a concurrent replace-by-identity reschedule
// win cleanly: a job pushed back to the future is neither claimed early
// nor stripped of its payload by the claimer's cleanup.
var claimScript = redis.NewScript(`
local score = redis.call('ZSCORE', KEYS[1], ARGV[1])
if not score or tonumber(score) > tonumber(ARGV[2]) then
	return false
end
redis.call('ZREM', KEYS[1], ARGV[1])
local payload = redis.call('HGET', KEYS[2], ARGV[1])
redis.call('HDEL', KEYS[2], ARGV[1])
if not payload then
	return ''
end
return payload
`)

// claim pops one due job. The scripted removal is the claim: when several
// workers see the same member, exactly one owns it.
func (j *Jobs) claim(ctx context.Context, now time.Time) (string, []byte, bool, error) {
	ids, err := j.rdb.ZRangeByScore(ctx, jobsKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: 1,
	}).Result()
	if err != nil || len(ids) == 0 {
		return "", nil, false, err
	}
	id := ids[0]
	res, err := claimScript.Run(ctx, j.rdb, []string{jobsKey, jobsPayloadKey}, id, now.UnixMilli()).Result()
	if errors.Is(err, redis.Nil) {
		// Lost to another claimer or to a reschedule.
		return "", nil, false, nil
	}
	if err != nil {
		return "", nil, false, err
	}
	payload, _ := res.(string)
	if payload == "" {
		return id, nil, true, nil
	}
	return id, []byte(payload), true, nil
}

// Run polls for due jobs until ctx is cancelled, draining everything due
// on each tick so a burst of deadlines does not wait a poll interval each.
func (j *Jobs) Run(ctx context.Context, poll time.Duration, handle func(ctx context.Context, id string, payload []byte)) {
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for {
				id, payload, ok, err := j.claim(ctx, now)
				if err != nil {
					log.Error().Err(err).Msg("claim deadline job failed")
					break
				}
				if !ok {
					break
				}
				handle(ctx, id, payload)
			}
		}
	}
}
