package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/models"
)

func TestSessionStoreLifecycle(t *testing.T) {
	st := NewSessionStore()
	sess, err := st.Create()
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, 1, st.Len())

	got, err := st.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	require.NoError(t, st.Delete(sess.ID))
	_, err = st.Get(sess.ID)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
	assert.ErrorIs(t, st.Delete(sess.ID), models.ErrSessionNotFound)
}

func TestSessionStoreClose(t *testing.T) {
	st := NewSessionStore()
	for i := 0; i < 3; i++ {
		_, err := st.Create()
		require.NoError(t, err)
	}
	st.Close()
	assert.Equal(t, 0, st.Len())
}

func TestSessionCloseReleasesIndex(t *testing.T) {
	store := &closeCounter{}
	sess := NewSession("s")
	sess.cache.Replace("k", buildIndex(t, store))
	sess.document = &models.DocumentText{Pages: []string{"x"}}

	sess.Close()
	assert.Equal(t, 1, store.closed)
	_, ok := sess.Document()
	assert.False(t, ok)
	_, _, ok = sess.current()
	assert.False(t, ok)
}

func TestBeginQueryCancelsPrevious(t *testing.T) {
	sess := NewSession("s")
	first, doneFirst := sess.beginQuery(context.Background())
	second, doneSecond := sess.beginQuery(context.Background())
	defer doneSecond()

	assert.ErrorIs(t, first.Err(), context.Canceled)
	assert.NoError(t, second.Err())

	doneFirst()
	assert.NoError(t, second.Err())
}
