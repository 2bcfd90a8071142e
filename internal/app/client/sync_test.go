package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"coinkeeper/internal/domain/entity"
	dsync "coinkeeper/internal/domain/sync"
)

var serverTime = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

type fakeCreds struct {
	token string
}

func (c *fakeCreds) Token() (string, bool) {
	return c.token, c.token != ""
}

type fakeTransport struct {
	lastToken string
	lastReq   *dsync.SyncRequest
	resp      *dsync.SyncResponse
	err       error
	calls     int
}

func (t *fakeTransport) SetToken(token string) {
	t.lastToken = token
}

func (t *fakeTransport) Sync(_ context.Context, req dsync.SyncRequest) (*dsync.SyncResponse, error) {
	t.calls++
	t.lastReq = &req
	if t.err != nil {
		return nil, t.err
	}
	return t.resp, nil
}

func newTestAgent(t *testing.T, transport *fakeTransport, creds *fakeCreds) (*Agent, *SQLiteStorage) {
	t.Helper()
	store := newTestStorage(t)
	return NewAgent(store, transport, creds, slog.Default()), store
}

func TestAgent_SyncNow_NoTokenSkips(t *testing.T) {
	transport := &fakeTransport{}
	agent, _ := newTestAgent(t, transport, &fakeCreds{})

	res, err := agent.SyncNow(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Zero(t, transport.calls, "no credential means no network traffic")
}

func TestAgent_SyncNow_OverlapSkips(t *testing.T) {
	transport := &fakeTransport{}
	agent, _ := newTestAgent(t, transport, &fakeCreds{token: "tok"})

	agent.mu.Lock()
	defer agent.mu.Unlock()

	res, err := agent.SyncNow(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Zero(t, transport.calls)
}

func TestAgent_SyncNow_RoundTrip(t *testing.T) {
	ctx := context.Background()
	serverCat := entity.NewCategory("Salary", entity.CategoryIncome, serverTime.Add(-time.Minute))

	transport := &fakeTransport{
		resp: &dsync.SyncResponse{
			SyncedAt: serverTime,
			Changes: entity.ChangeSet{
				Categories: []entity.CategoryWire{entity.CategoryToWire(serverCat)},
			},
		},
	}
	agent, store := newTestAgent(t, transport, &fakeCreds{token: "tok"})

	localID, err := store.InsertCategory(ctx, 0, entity.NewCategory("Groceries", entity.CategoryExpense, base))
	require.NoError(t, err)
	_, err = store.InsertTransaction(ctx, 0, entity.NewTransaction(localID, -1250, "lunch", base, base))
	require.NoError(t, err)

	res, err := agent.SyncNow(ctx)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 2, res.Uploaded)
	assert.Equal(t, 1, res.Downloaded)
	assert.True(t, res.SyncedAt.Equal(serverTime))

	// The request carried everything past the (zero) watermark.
	assert.Equal(t, "tok", transport.lastToken)
	require.NotNil(t, transport.lastReq)
	assert.True(t, transport.lastReq.LastSyncedAt.IsZero())
	assert.Len(t, transport.lastReq.Changes.Categories, 1)
	assert.Len(t, transport.lastReq.Changes.Transactions, 1)

	// The server's change landed and the watermark is the server's clock.
	cats, err := store.ListCategories(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, cats, 2)

	watermark, err := store.LastSyncedAt(ctx)
	require.NoError(t, err)
	assert.True(t, watermark.Equal(serverTime))

	// The next sync uploads nothing new.
	res, err = agent.SyncNow(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Uploaded)
}

func TestAgent_SyncNow_TransportFailureLeavesWatermark(t *testing.T) {
	ctx := context.Background()
	transport := &fakeTransport{err: errors.New("connection refused")}
	agent, store := newTestAgent(t, transport, &fakeCreds{token: "tok"})

	require.NoError(t, store.SetLastSyncedAt(ctx, base))

	_, err := agent.SyncNow(ctx)
	require.Error(t, err)

	watermark, err := store.LastSyncedAt(ctx)
	require.NoError(t, err)
	assert.True(t, watermark.Equal(base), "a failed round trip must not advance the watermark")
}

func TestAgent_SyncNow_NormalizesBeforeUpload(t *testing.T) {
	ctx := context.Background()
	transport := &fakeTransport{
		resp: &dsync.SyncResponse{SyncedAt: serverTime},
	}
	agent, store := newTestAgent(t, transport, &fakeCreds{token: "tok"})

	// Same global id twice, as after an interrupted apply.
	gid := entity.NewGlobalID()
	for i := 0; i < 2; i++ {
		c := entity.NewCategory("Rent", entity.CategoryExpense, base)
		c.GlobalID = gid
		_, err := store.InsertCategory(ctx, 0, c)
		require.NoError(t, err)
	}

	_, err := agent.SyncNow(ctx)
	require.NoError(t, err)

	cats, err := store.ListCategories(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, cats, 1, "duplicates collapse before anything is uploaded")
	require.NotNil(t, transport.lastReq)
	assert.Len(t, transport.lastReq.Changes.Categories, 1)
}

func TestAgent_AutoSyncStartStop(t *testing.T) {
	transport := &fakeTransport{resp: &dsync.SyncResponse{SyncedAt: serverTime}}
	agent, _ := newTestAgent(t, transport, &fakeCreds{token: "tok"})

	agent.StartAutoSync(time.Hour)
	agent.StartAutoSync(time.Hour) // second start is a no-op

	agent.StopAutoSync()
	agent.StopAutoSync() // and so is a second stop
}

func TestAgent_Status(t *testing.T) {
	ctx := context.Background()
	agent, store := newTestAgent(t, &fakeTransport{}, &fakeCreds{})

	last, pending, err := agent.Status(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())
	assert.Zero(t, pending)

	require.NoError(t, store.SetLastSyncedAt(ctx, base))
	_, err = store.InsertCategory(ctx, 0, entity.NewCategory("Rent", entity.CategoryExpense, base.Add(time.Hour)))
	require.NoError(t, err)

	last, pending, err = agent.Status(ctx)
	require.NoError(t, err)
	assert.True(t, last.Equal(base))
	assert.Equal(t, 1, pending)
}
