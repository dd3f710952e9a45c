package credentials

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongPassword = "Correct1Horse2Battery3Staple99"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(context.Background(), ":memory:", 4)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_CreateAndVerify(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec, err := store.Create(ctx, "id-1", "john", strongPassword)
	require.NoError(t, err)
	assert.Equal(t, "john", rec.Username)
	assert.NotEmpty(t, rec.Salt)

	ok, err := store.Verify(ctx, "john", strongPassword)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Verify(ctx, "john", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_CreateRejectsDuplicateUsername(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "id-1", "john", strongPassword)
	require.NoError(t, err)

	_, err = store.Create(ctx, "id-2", "john", strongPassword)
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestStore_CreateRejectsWeakPassword(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cases := []string{
		"short1A",             // too short
		"alllowercase12345678901", // no upper
		"ALLUPPERCASE12345678901", // no lower
		"NoDigitsAtAllInHereXX",   // no digit
	}
	for _, pw := range cases {
		_, err := store.Create(ctx, "id-x", "someone", pw)
		assert.ErrorIs(t, err, ErrWeakPassword, "password %q should be rejected", pw)
	}
}

func TestStore_CreateRejectsEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "id-1", "", strongPassword)
	assert.ErrorIs(t, err, ErrEmptyUsername)

	_, err = store.Create(ctx, "id-1", "john", "")
	assert.ErrorIs(t, err, ErrEmptyUsername)
}

func TestStore_Update(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "id-1", "john", strongPassword)
	require.NoError(t, err)

	newPassword := "AnotherStrong1Password2Here"
	err = store.Update(ctx, "john", strongPassword, newPassword)
	require.NoError(t, err)

	ok, err := store.Verify(ctx, "john", newPassword)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Verify(ctx, "john", strongPassword)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_UpdateRejectsWrongOldPassword(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "id-1", "john", strongPassword)
	require.NoError(t, err)

	err = store.Update(ctx, "john", "wrong-old-password", "NewStrong1Password2Here")
	require.Error(t, err)
}

func TestStore_DeleteListGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "id-1", "john", strongPassword)
	require.NoError(t, err)
	_, err = store.Create(ctx, "id-2", "alice", strongPassword)
	require.NoError(t, err)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	rec, err := store.Get(ctx, "john")
	require.NoError(t, err)
	assert.Equal(t, "id-1", rec.ID)

	err = store.Delete(ctx, "id-1")
	require.NoError(t, err)

	_, err = store.Get(ctx, "john")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UsernameNFCNormalization(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// "café" typed with a combining acute accent (NFD) should collide with
	// the precomposed (NFC) form already on file.
	nfc := "café"
	nfd := "café"

	_, err := store.Create(ctx, "id-1", nfc, strongPassword)
	require.NoError(t, err)

	_, err = store.Create(ctx, "id-2", nfd, strongPassword)
	assert.ErrorIs(t, err, ErrUsernameExists)

	ok, err := store.Verify(ctx, nfd, strongPassword)
	require.NoError(t, err)
	assert.True(t, ok)
}
