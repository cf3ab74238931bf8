//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	platformredis "cornerstone/internal/platform/redis"
	id "cornerstone/pkg/domain"
	"cornerstone/pkg/platform/sentinel"
	"cornerstone/pkg/testutil/containers"
)

type RedisDraftStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisDraftStore
	ctx   context.Context
}

func TestRedisDraftStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisDraftStoreSuite))
}

func (s *RedisDraftStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.NewRedisContainer(s.T())
	s.store = NewRedisDraftStore(&platformredis.Client{Client: s.redis.Client}, time.Hour)
}

func (s *RedisDraftStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisDraftStoreSuite) TestSaveFindDelete() {
	snap := sampleSnapshot()
	s.Require().NoError(s.store.Save(s.ctx, snap))

	got, err := s.store.Find(s.ctx, snap.RegistrationID)
	s.Require().NoError(err)
	s.Equal(snap, got)

	s.Require().NoError(s.store.Delete(s.ctx, snap.RegistrationID))
	s.Require().ErrorIs(s.store.Delete(s.ctx, snap.RegistrationID), sentinel.ErrNotFound)
}

func (s *RedisDraftStoreSuite) TestFindMissing() {
	_, err := s.store.Find(s.ctx, id.NewRegistrationID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisDraftStoreSuite) TestDraftExpires() {
	short := NewRedisDraftStore(&platformredis.Client{Client: s.redis.Client}, 50*time.Millisecond)
	snap := sampleSnapshot()
	s.Require().NoError(short.Save(s.ctx, snap))

	time.Sleep(150 * time.Millisecond)
	_, err := short.Find(s.ctx, snap.RegistrationID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
