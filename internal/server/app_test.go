package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/hydrotrack/internal/logging"
	"github.com/dmitrijs2005/hydrotrack/internal/server/config"
)

type fakeRunner struct {
	err     error
	blocked bool
}

func (f *fakeRunner) Run(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.blocked = true
	<-ctx.Done()
	return nil
}

func TestNewApp_OpenError(t *testing.T) {
	orig := openPostgres
	openPostgres = func(context.Context, string) (*sql.DB, error) { return nil, errors.New("refused") }
	t.Cleanup(func() { openPostgres = orig })

	_, err := NewApp(context.Background(), &config.Config{}, logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db init error")
}

func TestApp_Run_StopsOnCancelAndClosesDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	r := &fakeRunner{}
	app := &App{logger: logging.Discard(), db: db, server: r}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("app did not stop")
	}
	assert.True(t, r.blocked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApp_Run_ReturnsServerError(t *testing.T) {
	app := &App{logger: logging.Discard(), server: &fakeRunner{err: errors.New("listen failed")}}

	err := app.Run(context.Background())
	require.EqualError(t, err, "listen failed")
}
