package redis

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/kirinyoku/sunset-go/internal/repository"
	"github.com/kirinyoku/sunset-go/internal/repository/storetest"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := New(db)

	mock.ExpectGet(repository.KeyEventData).SetVal(`{"title":"Sunset"}`)
	mock.ExpectGet(repository.KeySession).RedisNil()
	mock.ExpectGet(repository.KeyUsers).SetErr(errors.New("connection reset"))

	got, err := s.Get(context.Background(), repository.KeyEventData)
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Sunset"}`, string(got))

	_, err = s.Get(context.Background(), repository.KeySession)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = s.Get(context.Background(), repository.KeyUsers)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SetDelete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := New(db)

	mock.ExpectSet(repository.KeyPastEvent, `{"name":"W PARTY"}`, 0).SetVal("OK")
	mock.ExpectDel(repository.KeySession).SetVal(1)

	require.NoError(t, s.Set(context.Background(), repository.KeyPastEvent, []byte(`{"name":"W PARTY"}`)))
	require.NoError(t, s.Delete(context.Background(), repository.KeySession))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Keys(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := New(db)

	mock.ExpectScan(0, "sunset_tickets_*", 100).SetVal([]string{"sunset_tickets_2", "sunset_tickets_1"}, 7)
	mock.ExpectScan(7, "sunset_tickets_*", 100).SetVal([]string{"sunset_tickets_10"}, 0)

	keys, err := s.Keys(context.Background(), repository.PrefixUserTickets)
	require.NoError(t, err)
	assert.Equal(t, []string{"sunset_tickets_1", "sunset_tickets_10", "sunset_tickets_2"}, keys)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// bump increments the counter held in the record and counts its calls.
func bump(calls *int) func(cur []byte) ([]byte, error) {
	return func(cur []byte) ([]byte, error) {
		*calls++

		var v struct {
			N int `json:"n"`
		}
		if cur != nil {
			if err := json.Unmarshal(cur, &v); err != nil {
				return nil, err
			}
		}
		v.N++

		return json.Marshal(v)
	}
}

func TestStore_Update(t *testing.T) {
	const key = "sunset_counter"

	t.Run("absent key is written", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		s := New(db)

		mock.ExpectWatch(key)
		mock.ExpectGet(key).RedisNil()
		mock.ExpectTxPipeline()
		mock.ExpectSet(key, `{"n":1}`, 0).SetVal("OK")
		mock.ExpectTxPipelineExec()

		var calls int
		require.NoError(t, s.Update(context.Background(), key, bump(&calls)))
		assert.Equal(t, 1, calls)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed transaction is retried on fresh data", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		s := New(db)

		mock.ExpectWatch(key)
		mock.ExpectGet(key).SetVal(`{"n":1}`)
		mock.ExpectTxPipeline()
		mock.ExpectSet(key, `{"n":2}`, 0).SetVal("OK")
		mock.ExpectTxPipelineExec().SetErr(redis.TxFailedErr)

		mock.ExpectWatch(key)
		mock.ExpectGet(key).SetVal(`{"n":5}`)
		mock.ExpectTxPipeline()
		mock.ExpectSet(key, `{"n":6}`, 0).SetVal("OK")
		mock.ExpectTxPipelineExec()

		var calls int
		require.NoError(t, s.Update(context.Background(), key, bump(&calls)))
		assert.Equal(t, 2, calls)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skip write leaves the key alone", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		s := New(db)

		mock.ExpectWatch(key)
		mock.ExpectGet(key).SetVal(`{"n":1}`)

		err := s.Update(context.Background(), key, func(cur []byte) ([]byte, error) {
			assert.Equal(t, `{"n":1}`, string(cur))
			return nil, repository.ErrSkipWrite
		})
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("callback error is returned", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		s := New(db)

		errRejected := errors.New("rejected")

		mock.ExpectWatch(key)
		mock.ExpectGet(key).RedisNil()

		err := s.Update(context.Background(), key, func([]byte) ([]byte, error) {
			return nil, errRejected
		})
		assert.ErrorIs(t, err, errRejected)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("read error is returned", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		s := New(db)

		mock.ExpectWatch(key)
		mock.ExpectGet(key).SetErr(errors.New("connection reset"))

		var calls int
		err := s.Update(context.Background(), key, bump(&calls))
		assert.Error(t, err)
		assert.Zero(t, calls)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conflict after retries", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		s := &Store{rdb: db, retries: 2}

		for i := 0; i < 2; i++ {
			mock.ExpectWatch(key)
			mock.ExpectGet(key).SetVal(`{"n":1}`)
			mock.ExpectTxPipeline()
			mock.ExpectSet(key, `{"n":2}`, 0).SetVal("OK")
			mock.ExpectTxPipelineExec().SetErr(redis.TxFailedErr)
		}

		var calls int
		err := s.Update(context.Background(), key, bump(&calls))
		assert.ErrorIs(t, err, repository.ErrConflict)
		assert.Equal(t, 2, calls)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// TestStore_Redis runs the shared store behaviour against a live server.
func TestStore_Redis(t *testing.T) {
	addr := os.Getenv("SUNSET_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SUNSET_TEST_REDIS_ADDR not set")
	}

	storetest.Run(t, func(t *testing.T) repository.Store {
		rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
		require.NoError(t, rdb.FlushDB(context.Background()).Err())
		t.Cleanup(func() { _ = rdb.Close() })
		return New(rdb)
	})
}
