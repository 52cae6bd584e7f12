// Package leaderboard materializes per-contest vote tallies into a Redis
// sorted set so ranking reads stay off the relational store. The worker
// rebuilds a contest's set whenever a refresh job arrives.
package leaderboard

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/talentstage/backend/internal/models"
)

const (
	keyPrefix = "contest:leaderboard:"
	// keyTTL bounds staleness for contests that stop receiving votes;
	// reads fall through to SQL after expiry.
	keyTTL = 24 * time.Hour
)

// Tallier returns vote counts per entry for a contest (zero-vote entries omitted).
type Tallier interface {
	TallyByContest(ctx context.Context, contestID uuid.UUID) (map[uuid.UUID]int, error)
}

// EntryLister returns a contest's entries, used to zero-fill the tally.
type EntryLister interface {
	ListByContest(ctx context.Context, contestID uuid.UUID) ([]models.EntryWithSubmitter, error)
}

// Cache is the Redis-backed leaderboard with SQL read-through.
type Cache struct {
	rdb     *redis.Client
	votes   Tallier
	entries EntryLister
	logger  *zap.Logger
}

// NewCache creates a leaderboard cache.
func NewCache(rdb *redis.Client, votes Tallier, entries EntryLister, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{rdb: rdb, votes: votes, entries: entries, logger: logger}
}

func key(contestID uuid.UUID) string {
	return keyPrefix + contestID.String()
}

// Rebuild recomputes a contest's leaderboard from the stores and replaces
// the Redis sorted set atomically (DEL + ZADD in one transaction).
func (c *Cache) Rebuild(ctx context.Context, contestID uuid.UUID) error {
	scores, err := c.compute(ctx, contestID)
	if err != nil {
		return err
	}
	members := make([]redis.Z, 0, len(scores))
	for _, s := range scores {
		members = append(members, redis.Z{Score: float64(s.Votes), Member: s.EntryID.String()})
	}
	k := key(contestID)
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		if len(members) > 0 {
			pipe.ZAdd(ctx, k, members...)
		}
		pipe.Expire(ctx, k, keyTTL)
		return nil
	})
	if err != nil {
		return err
	}
	c.logger.Debug("leaderboard rebuilt", zap.String("contest_id", contestID.String()), zap.Int("entries", len(members)))
	return nil
}

// Top returns the contest leaderboard, best first. Reads the Redis set when
// present and falls through to the stores otherwise.
func (c *Cache) Top(ctx context.Context, contestID uuid.UUID) ([]models.EntryScore, error) {
	zs, err := c.rdb.ZRevRangeWithScores(ctx, key(contestID), 0, -1).Result()
	if err == nil && len(zs) > 0 {
		scores := make([]models.EntryScore, 0, len(zs))
		for _, z := range zs {
			member, _ := z.Member.(string)
			id, err := uuid.Parse(member)
			if err != nil {
				continue
			}
			scores = append(scores, models.EntryScore{EntryID: id, Votes: int(z.Score)})
		}
		return scores, nil
	}
	if err != nil {
		c.logger.Warn("leaderboard redis read failed, using store", zap.Error(err))
	}
	return c.compute(ctx, contestID)
}

func (c *Cache) compute(ctx context.Context, contestID uuid.UUID) ([]models.EntryScore, error) {
	entries, err := c.entries.ListByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	tally, err := c.votes.TallyByContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return mergeScores(ids, tally), nil
}

// mergeScores zero-fills the tally against the full entry list and orders
// best first, breaking ties by entry id for stable output.
func mergeScores(entryIDs []uuid.UUID, tally map[uuid.UUID]int) []models.EntryScore {
	scores := make([]models.EntryScore, 0, len(entryIDs))
	for _, id := range entryIDs {
		scores = append(scores, models.EntryScore{EntryID: id, Votes: tally[id]})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Votes != scores[j].Votes {
			return scores[i].Votes > scores[j].Votes
		}
		return scores[i].EntryID.String() < scores[j].EntryID.String()
	})
	return scores
}
