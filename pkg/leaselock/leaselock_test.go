package leaselock

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	key string
	err error
}

func (r row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.key
	return nil
}

// fakeDB emulates the app_locks table for a single key.
type fakeDB struct {
	mu       sync.Mutex
	holder   string
	releases int
	failWith error
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.failWith != nil {
		return row{err: db.failWith}
	}
	key, token := args[0].(string), args[1].(string)
	switch {
	case strings.Contains(sql, "INSERT INTO app_locks"):
		if db.holder != "" && db.holder != token {
			return row{err: pgx.ErrNoRows}
		}
		db.holder = token
		return row{key: key}
	case strings.Contains(sql, "UPDATE app_locks"):
		if db.holder != token {
			return row{err: pgx.ErrNoRows}
		}
		return row{key: key}
	}
	return row{err: errors.New("unexpected query")}
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.holder == args[1].(string) {
		db.holder = ""
	}
	db.releases++
	return pgconn.NewCommandTag("DELETE 1"), nil
}

func (db *fakeDB) steal() {
	db.mu.Lock()
	db.holder = "someone-else"
	db.mu.Unlock()
}

func TestAcquireAndRelease(t *testing.T) {
	db := &fakeDB{}
	c := New(db)

	lease, err := c.Acquire(context.Background(), IngestKey, Options{TokenPrefix: "cli:"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(lease.Token, "cli:"))

	_, err = c.Acquire(context.Background(), IngestKey, Options{})
	assert.ErrorIs(t, err, ErrBusy)

	require.NoError(t, lease.Release(context.Background()))
	assert.Error(t, lease.Context.Err())

	again, err := c.Acquire(context.Background(), IngestKey, Options{})
	require.NoError(t, err)
	require.NoError(t, again.Release(context.Background()))
}

func TestAcquire_EmptyKey(t *testing.T) {
	_, err := New(&fakeDB{}).Acquire(context.Background(), "", Options{})
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestAcquire_WaitHonoursContext(t *testing.T) {
	db := &fakeDB{holder: "other"}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(db).Acquire(ctx, IngestKey, Options{Wait: true, WaitInterval: 10 * time.Millisecond})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAcquire_DatabaseError(t *testing.T) {
	db := &fakeDB{failWith: errors.New("connection refused")}
	_, err := New(db).Acquire(context.Background(), IngestKey, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestKeyLock_RunsFunctionAndReleases(t *testing.T) {
	db := &fakeDB{}
	lock := New(db).Lock(IngestKey, IngestOptions("worker"))

	ran := false
	err := lock.Lock(context.Background(), func(ctx context.Context) error {
		ran = true
		assert.NoError(t, ctx.Err())
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 1, db.releases)
	assert.Empty(t, db.holder)
}

func TestWithLease_LostLeaseCancelsContext(t *testing.T) {
	db := &fakeDB{}
	c := New(db)

	err := c.WithLease(context.Background(), IngestKey, Options{TTL: 2 * time.Second, RenewEvery: time.Second}, func(ctx context.Context) error {
		db.steal()
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, ErrLost)
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{TTL: time.Minute, RenewEvery: 2 * time.Minute}.withDefaults()
	assert.Equal(t, 30*time.Second, o.RenewEvery)
	assert.Equal(t, 250*time.Millisecond, o.WaitInterval)

	o = Options{}.withDefaults()
	assert.Equal(t, 5*time.Minute, o.TTL)
}
