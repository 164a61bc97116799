package clipboard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedrop/filedrop/internal/notify"
	"github.com/filedrop/filedrop/internal/store"
)

func newTestClipboard(t *testing.T) (*Store, *notify.Hub) {
	t.Helper()
	hub := notify.NewHub()
	return New(t.TempDir(), hub), hub
}

func TestCreateAndList(t *testing.T) {
	cb, _ := newTestClipboard(t)

	item, err := cb.Create("  hello world  ")
	require.NoError(t, err)
	assert.Equal(t, "hello world", item.Text)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, item.CreatedAt, item.UpdatedAt)

	items := cb.List()
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
	assert.Equal(t, "hello world", items[0].Text)
}

func TestCreateRejectsEmptyText(t *testing.T) {
	cb, _ := newTestClipboard(t)

	_, err := cb.Create("")
	assert.ErrorIs(t, err, ErrEmptyText)
	_, err = cb.Create("   ")
	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Empty(t, cb.List())
}

func TestCreateLengthBounds(t *testing.T) {
	cb, _ := newTestClipboard(t)

	_, err := cb.Create(strings.Repeat("a", MaxTextLen+1))
	assert.ErrorIs(t, err, ErrTextTooLong)

	item, err := cb.Create(strings.Repeat("a", MaxTextLen))
	require.NoError(t, err)
	assert.Len(t, item.Text, MaxTextLen)
}

func TestCreatePrependsNewestFirst(t *testing.T) {
	cb, _ := newTestClipboard(t)

	first, err := cb.Create("first")
	require.NoError(t, err)
	second, err := cb.Create("second")
	require.NoError(t, err)

	items := cb.List()
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)
}

func TestCreatePublishesClipboardChanged(t *testing.T) {
	cb, hub := newTestClipboard(t)

	sub := hub.Subscribe(notify.EventClipboard)
	defer hub.Unsubscribe(sub)

	_, err := cb.Create("note")
	require.NoError(t, err)

	select {
	case ev := <-sub.Events():
		assert.Equal(t, notify.EventClipboard, ev)
	case <-time.After(time.Second):
		t.Fatal("no clipboard-changed event")
	}
}

func TestUpdate(t *testing.T) {
	cb, _ := newTestClipboard(t)

	item, err := cb.Create("before")
	require.NoError(t, err)

	updated, err := cb.Update(item.ID, "  after  ")
	require.NoError(t, err)
	assert.Equal(t, item.ID, updated.ID)
	assert.Equal(t, "after", updated.Text)
	assert.Equal(t, item.CreatedAt, updated.CreatedAt)
	assert.False(t, updated.UpdatedAt.Before(item.UpdatedAt))

	items := cb.List()
	require.Len(t, items, 1)
	assert.Equal(t, "after", items[0].Text)
}

func TestUpdateKeepsPosition(t *testing.T) {
	cb, _ := newTestClipboard(t)

	older, err := cb.Create("older")
	require.NoError(t, err)
	newer, err := cb.Create("newer")
	require.NoError(t, err)

	_, err = cb.Update(older.ID, "older edited")
	require.NoError(t, err)

	items := cb.List()
	require.Len(t, items, 2)
	assert.Equal(t, newer.ID, items[0].ID)
	assert.Equal(t, older.ID, items[1].ID)
	assert.Equal(t, "older edited", items[1].Text)
}

func TestUpdateUnknownID(t *testing.T) {
	cb, _ := newTestClipboard(t)

	_, err := cb.Update("nope", "text")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateValidation(t *testing.T) {
	cb, _ := newTestClipboard(t)
	item, err := cb.Create("keep")
	require.NoError(t, err)

	_, err = cb.Update(item.ID, "  ")
	assert.ErrorIs(t, err, ErrEmptyText)
	_, err = cb.Update(item.ID, strings.Repeat("x", MaxTextLen+1))
	assert.ErrorIs(t, err, ErrTextTooLong)

	items := cb.List()
	require.Len(t, items, 1)
	assert.Equal(t, "keep", items[0].Text)
}

func TestDelete(t *testing.T) {
	cb, hub := newTestClipboard(t)

	item, err := cb.Create("bye")
	require.NoError(t, err)

	sub := hub.Subscribe(notify.EventClipboard)
	defer hub.Unsubscribe(sub)

	require.NoError(t, cb.Delete(item.ID))
	assert.Empty(t, cb.List())

	select {
	case ev := <-sub.Events():
		assert.Equal(t, notify.EventClipboard, ev)
	case <-time.After(time.Second):
		t.Fatal("no clipboard-changed event after delete")
	}
}

func TestDeleteUnknownIDLeavesListUnchanged(t *testing.T) {
	cb, _ := newTestClipboard(t)

	_, err := cb.Create("stays")
	require.NoError(t, err)

	assert.ErrorIs(t, cb.Delete("nope"), ErrNotFound)
	assert.Len(t, cb.List(), 1)
}

func TestCorruptDocumentDegradesToEmpty(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, store.ClipboardDocName)
	require.NoError(t, os.WriteFile(docPath, []byte("{not json"), 0644))

	cb := New(dir, nil)
	assert.Empty(t, cb.List())

	// Store self-heals on the next successful write
	_, err := cb.Create("fresh")
	require.NoError(t, err)
	assert.Len(t, cb.List(), 1)
}

func TestIDsUniqueAndRoughlySortable(t *testing.T) {
	cb, _ := newTestClipboard(t)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		item, err := cb.Create("note")
		require.NoError(t, err)
		assert.False(t, seen[item.ID], "duplicate id %s", item.ID)
		seen[item.ID] = true
	}
}
