//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"cornerstone/internal/registration/models"
	id "cornerstone/pkg/domain"
	"cornerstone/pkg/platform/sentinel"
	"cornerstone/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *PostgresStore
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(s.ctx))
}

func (s *PostgresStoreSuite) TestSaveFindDelete() {
	snap := sampleSnapshot()
	s.Require().NoError(s.store.Save(s.ctx, snap))

	got, err := s.store.Find(s.ctx, snap.RegistrationID)
	s.Require().NoError(err)
	s.Equal(snap, got)

	s.Require().NoError(s.store.Delete(s.ctx, snap.RegistrationID))
	_, err = s.store.Find(s.ctx, snap.RegistrationID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpsertOverwrites() {
	snap := sampleSnapshot()
	s.Require().NoError(s.store.Save(s.ctx, snap))

	snap.Status = models.OrderStatusCompleted
	snap.ConfirmationNumber = "GI2026-000042"
	s.Require().NoError(s.store.Save(s.ctx, snap))

	got, err := s.store.Find(s.ctx, snap.RegistrationID)
	s.Require().NoError(err)
	s.Equal(models.OrderStatusCompleted, got.Status)
	s.Equal("GI2026-000042", got.ConfirmationNumber)
}

func (s *PostgresStoreSuite) TestFindMissing() {
	_, err := s.store.Find(s.ctx, id.NewRegistrationID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
