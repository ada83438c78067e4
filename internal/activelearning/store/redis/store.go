// Package redis backs the active learning queue with Redis so the pending
// review queue survives restarts and is shared across instances.
//
// Layout:
//
//	neurowatch:alq:order            ZSET  query ID scored by enqueue time (ns)
//	neurowatch:alq:queries          HASH  query ID -> query JSON
//	neurowatch:alq:subject:<id>     SET   query IDs pending for the subject
//	neurowatch:alq:subjects         SET   subjects with pending queries
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"neurowatch/internal/activelearning"
	platformredis "neurowatch/internal/platform/redis"
	"neurowatch/pkg/domain"
)

const (
	keyOrder    = "neurowatch:alq:order"
	keyQueries  = "neurowatch:alq:queries"
	keySubjects = "neurowatch:alq:subjects"
)

func subjectKey(subjectID domain.SubjectID) string {
	return "neurowatch:alq:subject:" + string(subjectID)
}

// Store implements activelearning.Store on Redis.
type Store struct {
	client *platformredis.Client
}

func New(client *platformredis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Enqueue(ctx context.Context, query activelearning.Query) error {
	payload, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	id := query.ID.String()
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, keyOrder, goredis.Z{Score: float64(query.EnqueuedAt.UnixNano()), Member: id})
	pipe.HSet(ctx, keyQueries, id, payload)
	pipe.SAdd(ctx, subjectKey(query.SubjectID), id)
	pipe.SAdd(ctx, keySubjects, string(query.SubjectID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue query: %w", err)
	}
	return nil
}

func (s *Store) Resolve(ctx context.Context, subjectID domain.SubjectID) ([]activelearning.Query, error) {
	ids, err := s.client.SMembers(ctx, subjectKey(subjectID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load subject queries: %w", err)
	}
	if len(ids) == 0 {
		return []activelearning.Query{}, nil
	}

	removed, err := s.loadQueries(ctx, ids)
	if err != nil {
		return nil, err
	}

	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	pipe := s.client.TxPipeline()
	pipe.ZRem(ctx, keyOrder, members...)
	pipe.HDel(ctx, keyQueries, ids...)
	pipe.Del(ctx, subjectKey(subjectID))
	pipe.SRem(ctx, keySubjects, string(subjectID))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("resolve subject queries: %w", err)
	}
	return removed, nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]activelearning.Query, error) {
	stop := int64(limit - 1)
	if limit <= 0 {
		stop = -1
	}
	ids, err := s.client.ZRevRange(ctx, keyOrder, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("load queue order: %w", err)
	}
	if len(ids) == 0 {
		return []activelearning.Query{}, nil
	}
	return s.loadQueries(ctx, ids)
}

func (s *Store) Depth(ctx context.Context) (int, error) {
	n, err := s.client.ZCard(ctx, keyOrder).Result()
	if err != nil {
		return 0, fmt.Errorf("queue depth: %w", err)
	}
	return int(n), nil
}

func (s *Store) All(ctx context.Context) ([]activelearning.Query, error) {
	ids, err := s.client.ZRange(ctx, keyOrder, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load queue order: %w", err)
	}
	if len(ids) == 0 {
		return []activelearning.Query{}, nil
	}
	return s.loadQueries(ctx, ids)
}

// Replace swaps the entire queue. Snapshot restore only.
func (s *Store) Replace(ctx context.Context, queries []activelearning.Query) error {
	subjects, err := s.client.SMembers(ctx, keySubjects).Result()
	if err != nil {
		return fmt.Errorf("load subject registry: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, subject := range subjects {
		pipe.Del(ctx, subjectKey(domain.SubjectID(subject)))
	}
	pipe.Del(ctx, keyOrder, keyQueries, keySubjects)
	for _, query := range queries {
		payload, err := json.Marshal(query)
		if err != nil {
			return fmt.Errorf("marshal query: %w", err)
		}
		id := query.ID.String()
		pipe.ZAdd(ctx, keyOrder, goredis.Z{Score: float64(query.EnqueuedAt.UnixNano()), Member: id})
		pipe.HSet(ctx, keyQueries, id, payload)
		pipe.SAdd(ctx, subjectKey(query.SubjectID), id)
		pipe.SAdd(ctx, keySubjects, string(query.SubjectID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("replace queue: %w", err)
	}
	return nil
}

func (s *Store) loadQueries(ctx context.Context, ids []string) ([]activelearning.Query, error) {
	raw, err := s.client.HMGet(ctx, keyQueries, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("load queries: %w", err)
	}

	queries := make([]activelearning.Query, 0, len(raw))
	for i, v := range raw {
		// A nil slot means the hash entry vanished between the order read and
		// here (concurrent resolve); skip it rather than fail the whole read.
		str, ok := v.(string)
		if !ok {
			continue
		}
		var query activelearning.Query
		if err := json.Unmarshal([]byte(str), &query); err != nil {
			return nil, fmt.Errorf("unmarshal query %s: %w", ids[i], err)
		}
		queries = append(queries, query)
	}
	return queries, nil
}
