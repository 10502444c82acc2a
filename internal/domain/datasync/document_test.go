package datasync

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func change(base int64, payload string) Change {
	return Change{
		ChangeID:    uuid.NewString(),
		Collection:  "pos_cart",
		DocumentID:  "cart-1",
		BaseVersion: base,
		Payload:     json.RawMessage(payload),
	}
}

func TestChange_Validate(t *testing.T) {
	assert.NoError(t, change(0, `{"a":1}`).Validate())

	c := change(0, `{"a":1}`)
	c.Collection = "Bad-Name"
	assert.Error(t, c.Validate())

	c = change(0, `{not json`)
	assert.Error(t, c.Validate())

	c = change(0, ``)
	c.Delete = true
	assert.NoError(t, c.Validate())

	c = change(-1, `{}`)
	assert.Error(t, c.Validate())
}

func TestDocument_ApplyChecksVersion(t *testing.T) {
	user := uuid.New()
	doc, err := NewDocument(uuid.New(), change(0, `{ "a": 1 }`), user)
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Version)
	assert.JSONEq(t, `{"a":1}`, string(doc.Payload))
	assert.Equal(t, `{"a":1}`, string(doc.Payload))

	require.NoError(t, doc.Apply(change(1, `{"a":2}`), user))
	assert.Equal(t, int64(2), doc.Version)

	err = doc.Apply(change(1, `{"a":3}`), user)
	assert.True(t, errors.Is(err, ErrVersionMismatch))
	assert.Equal(t, int64(2), doc.Version)
	assert.JSONEq(t, `{"a":2}`, string(doc.Payload))
}

func TestNewDocument_RequiresZeroBase(t *testing.T) {
	_, err := NewDocument(uuid.New(), change(3, `{}`), uuid.New())
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestDocument_DeleteAndSameContent(t *testing.T) {
	doc, err := NewDocument(uuid.New(), change(0, `{"a":1}`), uuid.New())
	require.NoError(t, err)
	assert.True(t, doc.SameContent(change(0, `{ "a" : 1 }`)))
	assert.False(t, doc.SameContent(change(0, `{"a":2}`)))

	del := change(1, ``)
	del.Delete = true
	require.NoError(t, doc.Apply(del, uuid.New()))
	assert.True(t, doc.Deleted)
	assert.Nil(t, doc.Payload)
	assert.True(t, doc.SameContent(del))
}

func TestConflict_ResolveLocal(t *testing.T) {
	tenant, user := uuid.New(), uuid.New()
	doc, err := NewDocument(tenant, change(0, `{"qty":1}`), user)
	require.NoError(t, err)
	require.NoError(t, doc.Apply(change(1, `{"qty":2}`), user))

	c := NewConflict(tenant, "tablet-1", user, change(1, `{"qty":5}`), doc)
	assert.Equal(t, ConflictOpen, c.Status)
	assert.Equal(t, int64(2), c.RemoteVersion)

	resolver := uuid.New()
	out, err := c.Resolve(ResolutionLocal, resolver, doc)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, int64(3), out.Version)
	assert.JSONEq(t, `{"qty":5}`, string(out.Payload))
	assert.Equal(t, resolver, out.UpdatedBy)
	assert.Equal(t, ConflictResolved, c.Status)
	assert.Equal(t, ResolutionLocal, c.Resolution)

	_, err = c.Resolve(ResolutionRemote, resolver, doc)
	assert.Equal(t, "CONFLICT_RESOLVED", shared.ErrorCode(err))
}

func TestConflict_ResolveRemoteKeepsDocument(t *testing.T) {
	tenant, user := uuid.New(), uuid.New()
	doc, err := NewDocument(tenant, change(0, `{"qty":1}`), user)
	require.NoError(t, err)

	c := NewConflict(tenant, "tablet-1", user, change(0, `{"qty":9}`), doc)
	out, err := c.Resolve(ResolutionRemote, user, doc)
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Equal(t, int64(1), doc.Version)
	assert.JSONEq(t, `{"qty":1}`, string(doc.Payload))
}

func TestConflict_ResolveLocalRecreatesMissingDocument(t *testing.T) {
	c := NewConflict(uuid.New(), "tablet-1", uuid.New(), change(4, `{"x":true}`), nil)
	assert.True(t, c.RemoteDeleted)

	out, err := c.Resolve(ResolutionLocal, uuid.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Version)
	assert.Equal(t, "cart-1", out.DocumentID)
}

func TestConflict_RejectsUnknownResolution(t *testing.T) {
	c := NewConflict(uuid.New(), "c", uuid.New(), change(0, `{}`), nil)
	_, err := c.Resolve(Resolution("merge"), uuid.New(), nil)
	assert.Error(t, err)
	assert.Equal(t, ConflictOpen, c.Status)
}

func TestBackoff(t *testing.T) {
	base := 5 * time.Second
	assert.Equal(t, 5*time.Second, Backoff(base, 1))
	assert.Equal(t, 10*time.Second, Backoff(base, 2))
	assert.Equal(t, 40*time.Second, Backoff(base, 4))
	assert.Equal(t, 10*time.Minute, Backoff(base, 20))
}

func TestPendingWrite_Lifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := NewPendingWrite(uuid.New(), "c1", uuid.New(), change(0, `{}`), errors.New("timeout"), now, time.Second)
	assert.Equal(t, 1, p.Attempts)
	assert.Equal(t, "timeout", p.LastError)
	assert.False(t, p.IsDue(now))
	assert.True(t, p.IsDue(now.Add(time.Second)))

	p.Failed(errors.New("again"), now, time.Second, 3)
	assert.Equal(t, PendingQueued, p.Status)
	assert.Equal(t, now.Add(2*time.Second), p.NextAttemptAt)

	p.Failed(errors.New("again"), now, time.Second, 3)
	assert.Equal(t, PendingFailed, p.Status)
	assert.False(t, p.IsDue(now.Add(time.Hour)))
}

func TestClientSession_EffectiveState(t *testing.T) {
	now := time.Now()
	s := ClientSession{State: StateSyncing, LastSeenAt: now.Add(-10 * time.Second)}
	assert.Equal(t, StateSyncing, s.EffectiveState(now, time.Minute))
	assert.Equal(t, StateOffline, s.EffectiveState(now, 5*time.Second))
}
