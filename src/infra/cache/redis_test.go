package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgettool/src/core/domain"
	"budgettool/src/infra/config"
)

func startRedis(t *testing.T) (*miniredis.Miniredis, *config.RedisConfig) {
	t.Helper()
	s := miniredis.RunT(t)
	s.RequireAuth("pw")
	port, err := strconv.Atoi(s.Port())
	require.NoError(t, err)
	return s, &config.RedisConfig{Host: s.Host(), Port: port, Password: "pw"}
}

func openClient(t *testing.T, cfg *config.RedisConfig) *Client {
	t.Helper()
	c, err := Open(context.Background(), cfg, Options{ConnectTimeout: time.Second, TTL: time.Minute}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestOpen_PingsAndCloses(t *testing.T) {
	_, cfg := startRedis(t)
	c := openClient(t, cfg)

	require.NoError(t, c.Health(context.Background()))
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestOpen_WrongPassword(t *testing.T) {
	_, cfg := startRedis(t)
	cfg.Password = "nope"

	_, err := Open(context.Background(), cfg, Options{ConnectTimeout: time.Second}, slog.New(slog.DiscardHandler))
	require.ErrorIs(t, err, domain.ErrPoolCreation)
}

func TestResultRoundTrip(t *testing.T) {
	s, cfg := startRedis(t)
	c := openClient(t, cfg)
	ctx := context.Background()

	_, ok, err := c.GetResult(ctx, "accounts")
	require.NoError(t, err)
	assert.False(t, ok)

	in := &domain.QueryResult{
		Columns: []string{"account_name", "created_at"},
		Rows:    []domain.Row{{"account_name": "Checking", "created_at": "2025-05-01T00:00:00Z"}},
	}
	require.NoError(t, c.SetResult(ctx, "accounts", in))
	assert.True(t, s.Exists(KeyPrefix+"accounts"))
	assert.Equal(t, time.Minute, s.TTL(KeyPrefix+"accounts"))

	out, ok, err := c.GetResult(ctx, "accounts")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)

	s.FastForward(2 * time.Minute)
	_, ok, err = c.GetResult(ctx, "accounts")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResultRoundTrip_PreservesNumbers(t *testing.T) {
	_, cfg := startRedis(t)
	c := openClient(t, cfg)
	ctx := context.Background()

	var amount pgtype.Numeric
	require.NoError(t, amount.Scan("12.10"))

	in := &domain.QueryResult{
		Columns: []string{"id", "amount"},
		Rows:    []domain.Row{{"id": int64(9007199254740993), "amount": amount}},
	}
	require.NoError(t, c.SetResult(ctx, "transactions", in))

	out, ok, err := c.GetResult(ctx, "transactions")
	require.NoError(t, err)
	require.True(t, ok)

	direct, err := json.Marshal(in.Rows)
	require.NoError(t, err)
	cached, err := json.Marshal(out.Rows)
	require.NoError(t, err)

	assert.JSONEq(t, `[{"amount":12.10,"id":9007199254740993}]`, string(direct))
	assert.Equal(t, string(direct), string(cached))
	assert.Equal(t, json.Number("9007199254740993"), out.Rows[0]["id"])
	assert.Equal(t, json.Number("12.10"), out.Rows[0]["amount"])
}
