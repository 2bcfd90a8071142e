package migration

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinkeeper/internal/app/server/config"
)

type fakeMigrator struct {
	upErr    error
	srcErr   error
	dbErr    error
	upCalled bool
}

func (m *fakeMigrator) Up() error {
	m.upCalled = true
	return m.upErr
}

func (m *fakeMigrator) Close() (error, error) {
	return m.srcErr, m.dbErr
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.DB.DatabaseURI = "postgres://localhost/coinkeeper"
	cfg.DB.Migrations = "migrations"
	return cfg
}

func TestMigration_Up(t *testing.T) {
	m := &fakeMigrator{}
	var gotSource, gotDatabase string
	engine := func(sourceURL, databaseURL string) (Migrator, error) {
		gotSource = sourceURL
		gotDatabase = databaseURL
		return m, nil
	}

	err := NewMigration(testConfig(), engine).Up()
	require.NoError(t, err)
	assert.True(t, m.upCalled)
	assert.Equal(t, "file://migrations", gotSource)
	assert.Equal(t, "postgres://localhost/coinkeeper", gotDatabase)
}

func TestMigration_Up_NoChangeIsNotAnError(t *testing.T) {
	engine := func(_, _ string) (Migrator, error) {
		return &fakeMigrator{upErr: migrate.ErrNoChange}, nil
	}

	assert.NoError(t, NewMigration(testConfig(), engine).Up())
}

func TestMigration_Up_EngineError(t *testing.T) {
	wantErr := errors.New("bad database url")
	engine := func(_, _ string) (Migrator, error) {
		return nil, wantErr
	}

	assert.ErrorIs(t, NewMigration(testConfig(), engine).Up(), wantErr)
}

func TestMigration_Up_CloseErrorSurfaces(t *testing.T) {
	dbErr := errors.New("connection reset")
	engine := func(_, _ string) (Migrator, error) {
		return &fakeMigrator{dbErr: dbErr}, nil
	}

	assert.ErrorIs(t, NewMigration(testConfig(), engine).Up(), dbErr)
}
