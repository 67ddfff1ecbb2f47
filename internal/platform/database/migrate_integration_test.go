//go:build integration

package database_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"docregistry/internal/platform/config"
	"docregistry/internal/platform/database"
	"docregistry/pkg/testutil/containers"
)

type MigratorSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	migrator *database.Migrator
}

func TestMigratorSuite(t *testing.T) {
	suite.Run(t, new(MigratorSuite))
}

func (s *MigratorSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
}

func (s *MigratorSuite) SetupTest() {
	m, err := database.NewMigrator(s.postgres.DSN, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	s.migrator = m
}

func (s *MigratorSuite) TearDownTest() {
	s.Require().NoError(s.migrator.Up())
	s.Require().NoError(s.migrator.Close())
}

func (s *MigratorSuite) TestUpIsIdempotent() {
	s.Require().NoError(s.migrator.Up())

	version, dirty, ok, err := s.migrator.Version()
	s.Require().NoError(err)
	s.True(ok)
	s.False(dirty)
	s.Equal(uint(1), version)
}

func (s *MigratorSuite) TestDownThenUp() {
	s.Require().NoError(s.migrator.Down(1))

	_, _, ok, err := s.migrator.Version()
	s.Require().NoError(err)
	s.False(ok, "no version after rolling back the only migration")

	s.Require().NoError(s.migrator.Up())
	_, _, ok, err = s.migrator.Version()
	s.Require().NoError(err)
	s.True(ok)
}

func (s *MigratorSuite) TestPoolHealth() {
	pool, err := database.New(context.Background(), config.DatabaseConfig{URL: s.postgres.DSN, MaxOpenConns: 2})
	s.Require().NoError(err)
	defer pool.Close() //nolint:errcheck // test cleanup

	s.NoError(pool.Health(context.Background()))
}
