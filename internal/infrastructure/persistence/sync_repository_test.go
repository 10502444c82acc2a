package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/coretrack/backend/internal/domain/datasync"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChange(collection, documentID string, base int64, payload string) datasync.Change {
	return datasync.Change{
		ChangeID:    uuid.NewString(),
		Collection:  collection,
		DocumentID:  documentID,
		BaseVersion: base,
		Payload:     json.RawMessage(payload),
	}
}

func TestGormSyncDocumentRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSyncDocumentRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	userID := uuid.New()

	order, err := datasync.NewDocument(tenantID, testChange("orders", "o-1", 0, `{"table": 4}`), userID)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, order))
	assert.Equal(t, int64(1), order.Seq)

	note, err := datasync.NewDocument(tenantID, testChange("notes", "n-1", 0, `{"text":"hi"}`), userID)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, note))
	assert.Equal(t, int64(2), note.Seq)

	t.Run("stores compacted payloads", func(t *testing.T) {
		found, err := repo.Find(ctx, tenantID, "orders", "o-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), found.Version)
		assert.JSONEq(t, `{"table":4}`, string(found.Payload))

		_, err = repo.Find(ctx, uuid.New(), "orders", "o-1")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("updates against the previous version and restamps seq", func(t *testing.T) {
		found, err := repo.Find(ctx, tenantID, "orders", "o-1")
		require.NoError(t, err)
		require.NoError(t, found.Apply(testChange("orders", "o-1", 1, `{"table":5}`), userID))
		require.NoError(t, repo.Save(ctx, found))
		assert.Equal(t, int64(3), found.Seq)

		reloaded, err := repo.Find(ctx, tenantID, "orders", "o-1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), reloaded.Version)
		assert.Equal(t, int64(3), reloaded.Seq)
	})

	t.Run("a stale update is a conflict", func(t *testing.T) {
		stale := *order
		stale.Version = 1
		require.NoError(t, stale.Apply(testChange("orders", "o-1", 1, `{"table":9}`), userID))
		err := repo.Save(ctx, &stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("a duplicate first write is a retryable conflict", func(t *testing.T) {
		dup, err := datasync.NewDocument(tenantID, testChange("orders", "o-1", 0, `{}`), userID)
		require.NoError(t, err)
		err = repo.Save(ctx, dup)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.True(t, shared.IsRetryable(err))
	})

	t.Run("feeds changes after a watermark", func(t *testing.T) {
		docs, err := repo.FindChangedSince(ctx, tenantID, "", 0, 0)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "n-1", docs[0].DocumentID)
		assert.Equal(t, "o-1", docs[1].DocumentID)

		docs, err = repo.FindChangedSince(ctx, tenantID, "orders", 2, 10)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, int64(3), docs[0].Seq)

		docs, err = repo.FindChangedSince(ctx, tenantID, "", 3, 10)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("tombstones keep a version", func(t *testing.T) {
		found, err := repo.Find(ctx, tenantID, "notes", "n-1")
		require.NoError(t, err)
		require.NoError(t, found.Apply(datasync.Change{ChangeID: "c", Collection: "notes", DocumentID: "n-1", BaseVersion: 1, Delete: true}, userID))
		require.NoError(t, repo.Save(ctx, found))

		reloaded, err := repo.Find(ctx, tenantID, "notes", "n-1")
		require.NoError(t, err)
		assert.True(t, reloaded.Deleted)
		assert.Nil(t, reloaded.Payload)
		assert.Equal(t, int64(2), reloaded.Version)
	})
}

func TestGormSyncConflictRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSyncConflictRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	userID := uuid.New()

	remote, err := datasync.NewDocument(tenantID, testChange("orders", "o-1", 0, `{"table":1}`), userID)
	require.NoError(t, err)

	first := datasync.NewConflict(tenantID, "tablet-1", userID, testChange("orders", "o-1", 0, `{"table":2}`), remote)
	require.NoError(t, repo.Save(ctx, first))
	second := datasync.NewConflict(tenantID, "tablet-2", userID, testChange("notes", "n-1", 3, `{"text":"x"}`), nil)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Save(ctx, second))

	t.Run("lists open conflicts oldest first", func(t *testing.T) {
		conflicts, total, err := repo.FindOpen(ctx, tenantID, shared.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, conflicts, 2)
		assert.Equal(t, first.ID, conflicts[0].ID)
		assert.JSONEq(t, `{"table":1}`, string(conflicts[0].RemotePayload))
		assert.True(t, conflicts[1].RemoteDeleted)
	})

	t.Run("filters by collection", func(t *testing.T) {
		filter := shared.Filter{Filters: map[string]any{"collection": "notes"}}
		conflicts, total, err := repo.FindOpen(ctx, tenantID, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, second.ID, conflicts[0].ID)
	})

	t.Run("resolved conflicts leave the open list", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tenantID, first.ID)
		require.NoError(t, err)
		_, err = found.Resolve(datasync.ResolutionRemote, userID, remote)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, found))

		_, total, err := repo.FindOpen(ctx, tenantID, shared.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)

		resolved, err := repo.FindByID(ctx, tenantID, first.ID)
		require.NoError(t, err)
		assert.Equal(t, datasync.ConflictResolved, resolved.Status)
		assert.Equal(t, datasync.ResolutionRemote, resolved.Resolution)
	})
}

func TestGormSyncPendingWriteRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSyncPendingWriteRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	cause := errors.New("deadlock")

	due := datasync.NewPendingWrite(tenantID, "tablet-1", uuid.New(), testChange("orders", "o-1", 0, `{}`), cause, now.Add(-time.Minute), time.Second)
	require.NoError(t, repo.Save(ctx, due))
	later := datasync.NewPendingWrite(tenantID, "tablet-1", uuid.New(), testChange("orders", "o-2", 0, `{}`), cause, now, time.Hour)
	require.NoError(t, repo.Save(ctx, later))

	writes, err := repo.FindDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, writes, 1)
	assert.Equal(t, due.ID, writes[0].ID)
	assert.Equal(t, "o-1", writes[0].Change.DocumentID)
	assert.Equal(t, "deadlock", writes[0].LastError)

	count, err := repo.CountQueued(ctx, tenantID, "tablet-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	writes[0].Applied(now)
	require.NoError(t, repo.Save(ctx, &writes[0]))

	count, err = repo.CountQueued(ctx, tenantID, "tablet-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
