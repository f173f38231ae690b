package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zeu5/miniblocks/types"
)

// RedisStore keeps one hash per episode and one list of episode ids per experiment
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ types.EpisodeRecorder = &RedisStore{}

func NewRedisStore(addr, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "miniblocks"
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:        addr,
			DialTimeout: 500 * time.Millisecond,
		}),
		prefix: prefix,
	}
}

func (r *RedisStore) episodeKey(id string) string {
	return r.prefix + ":episode:" + id
}

func (r *RedisStore) experimentKey(name string) string {
	return r.prefix + ":experiment:" + name
}

// Ping checks the server is reachable
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) RecordEpisode(ctx context.Context, e types.EpisodeSummary) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.episodeKey(e.ID), map[string]interface{}{
			"experiment":   e.Experiment,
			"run":          e.Run,
			"episode":      e.Episode,
			"steps":        e.Steps,
			"total_reward": strconv.FormatFloat(e.TotalReward, 'g', -1, 64),
			"terminal":     strconv.FormatBool(e.Terminal),
			"timed_out":    strconv.FormatBool(e.TimedOut),
			"error":        e.Error,
			"duration_ns":  int64(e.Duration),
			"recorded_at":  e.RecordedAt.UTC().Format(time.RFC3339Nano),
		})
		pipe.RPush(ctx, r.experimentKey(e.Experiment), e.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("recording episode %s: %w", e.ID, err)
	}
	return nil
}

// Summaries of an experiment in recording order
func (r *RedisStore) Summaries(ctx context.Context, experiment string) ([]types.EpisodeSummary, error) {
	ids, err := r.client.LRange(ctx, r.experimentKey(experiment), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]types.EpisodeSummary, 0, len(ids))
	for _, id := range ids {
		fields, err := r.client.HGetAll(ctx, r.episodeKey(id)).Result()
		if err != nil {
			return nil, err
		}
		e := types.EpisodeSummary{ID: id, Experiment: fields["experiment"], Error: fields["error"]}
		e.Run, _ = strconv.Atoi(fields["run"])
		e.Episode, _ = strconv.Atoi(fields["episode"])
		e.Steps, _ = strconv.Atoi(fields["steps"])
		e.TotalReward, _ = strconv.ParseFloat(fields["total_reward"], 64)
		e.Terminal, _ = strconv.ParseBool(fields["terminal"])
		e.TimedOut, _ = strconv.ParseBool(fields["timed_out"])
		duration, _ := strconv.ParseInt(fields["duration_ns"], 10, 64)
		e.Duration = time.Duration(duration)
		e.RecordedAt, _ = time.Parse(time.RFC3339Nano, fields["recorded_at"])
		out = append(out, e)
	}
	return out, nil
}

// Clear removes every key of the experiment
func (r *RedisStore) Clear(ctx context.Context, experiment string) error {
	ids, err := r.client.LRange(ctx, r.experimentKey(experiment), 0, -1).Result()
	if err != nil {
		return err
	}
	keys := []string{r.experimentKey(experiment)}
	for _, id := range ids {
		keys = append(keys, r.episodeKey(id))
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
