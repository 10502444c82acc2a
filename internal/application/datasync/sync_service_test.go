package datasync

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/coretrack/backend/internal/domain/datasync"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/cache"
	"github.com/coretrack/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	documents *testutil.MockSyncDocumentRepository
	conflicts *testutil.MockSyncConflictRepository
	pending   *testutil.MockPendingWriteRepository
	events    *testutil.RecordingPublisher
	svc       *SyncService
	now       time.Time
	actor     identity.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		documents: new(testutil.MockSyncDocumentRepository),
		conflicts: new(testutil.MockSyncConflictRepository),
		pending:   new(testutil.MockPendingWriteRepository),
		events:    &testutil.RecordingPublisher{},
		now:       time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
		actor:     identity.Actor{TenantID: uuid.New(), UserID: uuid.New(), Role: identity.RoleStaff},
	}
	f.svc = NewSyncService(shared.NoOpTransactionScope{}, f.documents, f.conflicts, f.pending,
		cache.NewInMemorySessionStore(), f.events,
		Options{RetryBaseDelay: time.Second, MaxAttempts: 2, PullLimit: 2}, zap.NewNop())
	f.svc.now = func() time.Time { return f.now }
	return f
}

func change(id string, base int64, payload string) datasync.Change {
	return datasync.Change{
		ChangeID:    id,
		Collection:  "pos_cart",
		DocumentID:  "cart-1",
		BaseVersion: base,
		Payload:     json.RawMessage(payload),
	}
}

func (f *fixture) existing(t *testing.T, version int, payload string) *datasync.Document {
	t.Helper()
	doc, err := datasync.NewDocument(f.actor.TenantID, change("seed", 0, `{}`), uuid.New())
	require.NoError(t, err)
	for doc.Version < int64(version) {
		require.NoError(t, doc.Apply(change("seed", doc.Version, payload), doc.UpdatedBy))
	}
	return doc
}

func TestSyncService_Push(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and updates", func(t *testing.T) {
		f := newFixture(t)
		doc := f.existing(t, 2, `{"qty":1}`)
		f.documents.On("Find", mock.Anything, f.actor.TenantID, "pos_cart", "cart-1").Return(doc, nil).Once()
		f.documents.On("Find", mock.Anything, f.actor.TenantID, "pos_cart", "cart-2").Return(nil, shared.ErrNotFound).Once()
		f.documents.On("Save", mock.Anything, mock.AnythingOfType("*datasync.Document")).Return(nil)

		created := change("c2", 0, `{"qty":3}`)
		created.DocumentID = "cart-2"
		resp, err := f.svc.Push(ctx, f.actor, PushRequest{ClientID: "tablet-1", Changes: []datasync.Change{
			change("c1", 2, `{"qty":2}`),
			created,
		}})
		require.NoError(t, err)
		require.Len(t, resp.Results, 2)
		assert.Equal(t, datasync.ResultApplied, resp.Results[0].Status)
		assert.Equal(t, int64(3), resp.Results[0].Version)
		assert.Equal(t, datasync.ResultApplied, resp.Results[1].Status)
		assert.Equal(t, int64(1), resp.Results[1].Version)
		assert.Equal(t, []string{datasync.EventTypeDocumentChanged, datasync.EventTypeDocumentChanged}, f.events.Types())
	})

	t.Run("stale write becomes a conflict", func(t *testing.T) {
		f := newFixture(t)
		doc := f.existing(t, 3, `{"qty":1}`)
		f.documents.On("Find", mock.Anything, f.actor.TenantID, "pos_cart", "cart-1").Return(doc, nil)
		f.conflicts.On("Save", mock.Anything, mock.MatchedBy(func(c *datasync.Conflict) bool {
			return c.BaseVersion == 2 && c.RemoteVersion == 3 && c.ClientID == "tablet-1"
		})).Return(nil)

		resp, err := f.svc.Push(ctx, f.actor, PushRequest{ClientID: "tablet-1", Changes: []datasync.Change{change("c1", 2, `{"qty":9}`)}})
		require.NoError(t, err)
		result := resp.Results[0]
		assert.Equal(t, datasync.ResultConflict, result.Status)
		assert.NotNil(t, result.ConflictID)
		assert.Equal(t, int64(3), doc.Version)
		f.documents.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		assert.Equal(t, []string{datasync.EventTypeConflictDetected}, f.events.Types())
	})

	t.Run("resend of an applied change", func(t *testing.T) {
		f := newFixture(t)
		doc, err := datasync.NewDocument(f.actor.TenantID, change("c1", 0, `{"qty":1}`), f.actor.UserID)
		require.NoError(t, err)
		f.documents.On("Find", mock.Anything, f.actor.TenantID, "pos_cart", "cart-1").Return(doc, nil)

		resp, err := f.svc.Push(ctx, f.actor, PushRequest{ClientID: "tablet-1", Changes: []datasync.Change{change("c1", 0, `{ "qty": 1 }`)}})
		require.NoError(t, err)
		assert.Equal(t, datasync.ResultDuplicate, resp.Results[0].Status)
		f.conflicts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("transient failure is queued", func(t *testing.T) {
		f := newFixture(t)
		f.documents.On("Find", mock.Anything, f.actor.TenantID, "pos_cart", "cart-1").Return(nil, errors.New("connection reset"))
		f.pending.On("Save", mock.Anything, mock.MatchedBy(func(p *datasync.PendingWrite) bool {
			return p.Attempts == 1 && p.NextAttemptAt.Equal(f.now.Add(time.Second)) && p.LastError == "connection reset"
		})).Return(nil)

		resp, err := f.svc.Push(ctx, f.actor, PushRequest{ClientID: "tablet-1", Changes: []datasync.Change{change("c1", 0, `{}`)}})
		require.NoError(t, err)
		assert.Equal(t, datasync.ResultQueued, resp.Results[0].Status)
		f.pending.AssertExpectations(t)
	})

	t.Run("invalid change is rejected without failing the batch", func(t *testing.T) {
		f := newFixture(t)
		f.documents.On("Find", mock.Anything, f.actor.TenantID, "pos_cart", "cart-1").Return(nil, shared.ErrNotFound)
		f.documents.On("Save", mock.Anything, mock.Anything).Return(nil)

		bad := change("bad", 0, `{oops`)
		resp, err := f.svc.Push(ctx, f.actor, PushRequest{ClientID: "tablet-1", Changes: []datasync.Change{bad, change("ok", 0, `{}`)}})
		require.NoError(t, err)
		assert.Equal(t, datasync.ResultRejected, resp.Results[0].Status)
		assert.NotEmpty(t, resp.Results[0].Error)
		assert.Equal(t, datasync.ResultApplied, resp.Results[1].Status)
	})
}

func TestSyncService_Pull(t *testing.T) {
	f := newFixture(t)
	docs := []datasync.Document{{Seq: 4, DocumentID: "a"}, {Seq: 7, DocumentID: "b"}, {Seq: 9, DocumentID: "c"}}
	f.documents.On("FindChangedSince", mock.Anything, f.actor.TenantID, "", int64(3), 3).Return(docs, nil)

	resp, err := f.svc.Pull(context.Background(), f.actor, PullRequest{Since: 3, Limit: 50})
	require.NoError(t, err)
	assert.Len(t, resp.Documents, 2)
	assert.True(t, resp.HasMore)
	assert.Equal(t, int64(7), resp.Watermark)

	_, err = f.svc.Pull(context.Background(), f.actor, PullRequest{Collection: "Bad Name"})
	assert.Error(t, err)
}

func TestSyncService_ResolveConflict(t *testing.T) {
	ctx := context.Background()

	newConflict := func(f *fixture, author uuid.UUID) (*datasync.Conflict, *datasync.Document) {
		doc := f.existing(t, 2, `{"qty":1}`)
		c := datasync.NewConflict(f.actor.TenantID, "tablet-1", author, change("c1", 1, `{"qty":5}`), doc)
		f.conflicts.On("FindByID", mock.Anything, f.actor.TenantID, c.ID).Return(c, nil)
		f.documents.On("Find", mock.Anything, f.actor.TenantID, "pos_cart", "cart-1").Return(doc, nil).Maybe()
		return c, doc
	}

	t.Run("local overwrites with a new version", func(t *testing.T) {
		f := newFixture(t)
		c, doc := newConflict(f, f.actor.UserID)
		f.documents.On("Save", mock.Anything, doc).Return(nil)
		f.conflicts.On("Save", mock.Anything, c).Return(nil)

		resp, err := f.svc.ResolveConflict(ctx, f.actor, c.ID, ResolveConflictRequest{Resolution: "local"})
		require.NoError(t, err)
		require.NotNil(t, resp.Document)
		assert.Equal(t, int64(3), resp.Document.Version)
		assert.JSONEq(t, `{"qty":5}`, string(resp.Document.Payload))
		assert.Equal(t, "resolved", resp.Conflict.Status)
		assert.Equal(t, []string{datasync.EventTypeConflictResolved, datasync.EventTypeDocumentChanged}, f.events.Types())
	})

	t.Run("remote keeps the server copy", func(t *testing.T) {
		f := newFixture(t)
		c, _ := newConflict(f, f.actor.UserID)
		f.conflicts.On("Save", mock.Anything, c).Return(nil)

		resp, err := f.svc.ResolveConflict(ctx, f.actor, c.ID, ResolveConflictRequest{Resolution: "remote"})
		require.NoError(t, err)
		assert.Nil(t, resp.Document)
		f.documents.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("staff cannot resolve someone else's conflict", func(t *testing.T) {
		f := newFixture(t)
		c, _ := newConflict(f, uuid.New())

		_, err := f.svc.ResolveConflict(ctx, f.actor, c.ID, ResolveConflictRequest{Resolution: "local"})
		assert.ErrorIs(t, err, shared.ErrForbidden)
		assert.Equal(t, datasync.ConflictOpen, c.Status)
	})
}

func TestSyncService_HeartbeatAndSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.pending.On("CountQueued", mock.Anything, f.actor.TenantID, "tablet-1").Return(int64(2), nil)

	resp, err := f.svc.Heartbeat(ctx, f.actor, HeartbeatRequest{ClientID: "tablet-1", State: "syncing"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Pending)

	_, err = f.svc.Sessions(ctx, f.actor)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	manager := f.actor
	manager.Role = identity.RoleManager
	f.now = f.now.Add(5 * time.Minute)
	sessions, err := f.svc.Sessions(ctx, manager)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "offline", sessions[0].State)
}

func TestSyncService_ProcessRetries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	applies := datasync.NewPendingWrite(f.actor.TenantID, "tablet-1", f.actor.UserID, change("c1", 0, `{}`), errors.New("timeout"), f.now.Add(-time.Minute), time.Second)
	flaky := datasync.NewPendingWrite(f.actor.TenantID, "tablet-1", f.actor.UserID, change("c2", 0, `{}`), errors.New("timeout"), f.now.Add(-time.Minute), time.Second)
	flaky.Change.DocumentID = "cart-2"
	f.pending.On("FindDue", mock.Anything, f.now, 100).Return([]datasync.PendingWrite{*applies, *flaky}, nil)
	f.documents.On("Find", mock.Anything, f.actor.TenantID, "pos_cart", "cart-1").Return(nil, shared.ErrNotFound)
	f.documents.On("Find", mock.Anything, f.actor.TenantID, "pos_cart", "cart-2").Return(nil, errors.New("timeout"))
	f.documents.On("Save", mock.Anything, mock.Anything).Return(nil)

	var saved []datasync.PendingWrite
	f.pending.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = append(saved, *args.Get(1).(*datasync.PendingWrite))
	}).Return(nil)

	stats, err := f.svc.ProcessRetries(ctx)
	require.NoError(t, err)
	assert.Equal(t, RetryStats{Applied: 1, Failed: 1}, stats)
	require.Len(t, saved, 2)
	assert.Equal(t, datasync.PendingApplied, saved[0].Status)
	// second failure reaches MaxAttempts
	assert.Equal(t, datasync.PendingFailed, saved[1].Status)
	assert.Equal(t, []string{datasync.EventTypeDocumentChanged}, f.events.Types())
}
