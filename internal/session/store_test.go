package session

import (
	"context"
	"testing"

	"github.com/continuum-ai/continuum/internal/kv"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testKV(t *testing.T) kv.Store {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	s, err := kv.NewGormStore(db)
	require.NoError(t, err)
	return s
}

func TestCreateAppendDelete(t *testing.T) {
	s := NewStore(nil)

	sess := s.CreateSession("First chat", "local-only")
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, sess.ID, s.Get().ActiveSessionID)
	assert.True(t, s.Get().IsDirty)

	msg, ok := s.AppendMessage(sess.ID, RoleUser, "hello")
	require.True(t, ok)
	assert.Equal(t, RoleUser, msg.Role)
	assert.Len(t, s.Get().Sessions[0].Messages, 1)

	// unknown session is a silent no-op
	_, ok = s.AppendMessage("nope", RoleUser, "lost")
	assert.False(t, ok)

	s.DeleteSession(sess.ID)
	assert.Empty(t, s.Get().Sessions)
	assert.Empty(t, s.Get().ActiveSessionID)

	// deleting again must not panic or dirty anything
	s.DeleteSession(sess.ID)
}

func TestSetActiveSessionUnknownIDIsNoop(t *testing.T) {
	s := NewStore(nil)
	a := s.CreateSession("a", "")
	b := s.CreateSession("b", "")

	s.SetActiveSession(a.ID)
	assert.Equal(t, a.ID, s.Get().ActiveSessionID)

	s.SetActiveSession("missing")
	assert.Equal(t, a.ID, s.Get().ActiveSessionID)

	s.SetActiveSession(b.ID)
	assert.Equal(t, b.ID, s.Get().ActiveSessionID)

	s.SetActiveSession("")
	assert.Empty(t, s.Get().ActiveSessionID)
}

func TestSaveAndRecover(t *testing.T) {
	ctx := context.Background()
	kvs := testKV(t)

	s := NewStore(kvs)
	require.NoError(t, s.Initialize(ctx))
	assert.False(t, s.Get().WasRecovered)

	first := s.CreateSession("kept", "local-only")
	s.CreateSession("also kept", "local-only")
	s.AppendMessage(first.ID, RoleUser, "hi")

	require.NoError(t, s.Save(ctx))
	assert.False(t, s.Get().IsDirty)
	assert.False(t, s.Get().LastSavedAt.IsZero())

	// a fresh store over the same kv recovers the snapshot
	s2 := NewStore(kvs)
	require.NoError(t, s2.Initialize(ctx))
	st := s2.Get()
	assert.True(t, st.WasRecovered)
	require.Len(t, st.Sessions, 2)
	assert.Equal(t, "kept", st.Sessions[0].Title)
	assert.Len(t, st.Sessions[0].Messages, 1)

	notice, ok := s2.ConsumeRecoveryNotice()
	require.True(t, ok)
	assert.Equal(t, "2 sessions restored from previous session", notice)

	// one-shot: the notice never fires twice
	_, ok = s2.ConsumeRecoveryNotice()
	assert.False(t, ok)
}

func TestRecoveryNoticeSingular(t *testing.T) {
	ctx := context.Background()
	kvs := testKV(t)

	s := NewStore(kvs)
	s.CreateSession("only", "")
	require.NoError(t, s.Save(ctx))

	s2 := NewStore(kvs)
	require.NoError(t, s2.Initialize(ctx))
	notice, ok := s2.ConsumeRecoveryNotice()
	require.True(t, ok)
	assert.Equal(t, "1 session restored from previous session", notice)
}

func TestInitializeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	kvs := testKV(t)

	seed := NewStore(kvs)
	seed.CreateSession("persisted", "")
	require.NoError(t, seed.Save(ctx))

	s := NewStore(kvs)
	require.NoError(t, s.Initialize(ctx))
	s.CreateSession("new in this process", "")

	// second Initialize must not reload the snapshot over live state
	require.NoError(t, s.Initialize(ctx))
	assert.Len(t, s.Get().Sessions, 2)
}

func TestSummarizeSession(t *testing.T) {
	s := NewStore(nil)
	sess := s.CreateSession("long chat", "")
	for i := 0; i < 6; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		s.AppendMessage(sess.ID, role, "turn")
	}

	require.True(t, s.SummarizeSession(sess.ID, 2))

	msgs := s.Get().Sessions[0].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, "[Summary of 4 earlier messages]", msgs[0].Content)
	assert.Equal(t, "turn", msgs[1].Content)

	// nothing worth condensing: no-op
	before := s.Get().Sessions[0].Messages
	s.SummarizeSession(sess.ID, 10)
	assert.Len(t, s.Get().Sessions[0].Messages, len(before))

	assert.False(t, s.SummarizeSession("missing", 2))
}

func TestActiveHealth(t *testing.T) {
	s := NewStore(nil)
	sess := s.CreateSession("chat", "")
	s.AppendMessage(sess.ID, RoleUser, "aaaaaaaa") // 8 chars = 2 tokens

	h := s.ActiveHealth(100)
	assert.Equal(t, 2, h.TokensUsed)
	assert.Equal(t, 1, h.MessageCount)

	s.SetActiveSession("")
	h = s.ActiveHealth(100)
	assert.Equal(t, 0, h.MessageCount)
}

func TestResetClearsOneShotFlags(t *testing.T) {
	ctx := context.Background()
	kvs := testKV(t)

	seed := NewStore(kvs)
	seed.CreateSession("persisted", "")
	require.NoError(t, seed.Save(ctx))

	s := NewStore(kvs)
	require.NoError(t, s.Initialize(ctx))
	_, ok := s.ConsumeRecoveryNotice()
	require.True(t, ok)

	s.Reset()
	assert.Empty(t, s.Get().Sessions)

	// after reset the store behaves like a fresh process
	require.NoError(t, s.Initialize(ctx))
	_, ok = s.ConsumeRecoveryNotice()
	assert.True(t, ok)
}
