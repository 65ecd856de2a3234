//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ivory/internal/session"
	id "ivory/pkg/domain"
	"ivory/pkg/platform/sentinel"
	"ivory/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *session.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = session.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	sid := id.NewSessionID()

	s.Require().NoError(s.store.Set(ctx, sid, "WHAT_SPECIES", "Elephant", time.Hour))
	got, err := s.store.Get(ctx, sid, "WHAT_SPECIES")
	s.Require().NoError(err)
	s.Equal("Elephant", got)

	raw, err := s.redis.Client.Get(ctx, "ivory:"+sid.String()+":WHAT_SPECIES").Result()
	s.Require().NoError(err)
	s.Equal("Elephant", raw)
}

func (s *RedisStoreSuite) TestTTLApplied() {
	ctx := context.Background()
	sid := id.NewSessionID()

	s.Require().NoError(s.store.Set(ctx, sid, "K", "v", 24*time.Hour))
	ttl, err := s.redis.Client.TTL(ctx, "ivory:"+sid.String()+":K").Result()
	s.Require().NoError(err)
	s.Greater(ttl, 23*time.Hour)
}

func (s *RedisStoreSuite) TestMissingAndDeleted() {
	ctx := context.Background()
	sid := id.NewSessionID()

	_, err := s.store.Get(ctx, sid, "NOPE")
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.Set(ctx, sid, "K", "v", time.Hour))
	s.Require().NoError(s.store.Delete(ctx, sid, "K"))
	_, err = s.store.Get(ctx, sid, "K")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestCanceledContextIsUnavailable() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.store.Get(ctx, id.NewSessionID(), "K")
	s.ErrorIs(err, sentinel.ErrUnavailable)
}
