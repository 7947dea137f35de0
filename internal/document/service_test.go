package document_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpl-au/quill/internal/blob"
	"github.com/jpl-au/quill/internal/config"
	"github.com/jpl-au/quill/internal/document"
	"github.com/jpl-au/quill/internal/lock"
	"github.com/jpl-au/quill/internal/repo"
	"github.com/jpl-au/quill/internal/service"
	"github.com/jpl-au/quill/internal/store"
	"github.com/jpl-au/quill/internal/validate"
)

const (
	alice = "alice"
	bob   = "bob"
)

type fixture struct {
	svc   *document.Service
	st    store.Store
	blobs *blob.MemStore
}

// setupService creates a service over a temp-dir SQLite store, an in-memory
// blob store and in-process locks.
func setupService(t *testing.T) fixture {
	t.Helper()
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "quill.db"))
	require.NoError(t, err, "opening store")
	require.NoError(t, st.Init(), "initialising store")
	return newFixture(t, st)
}

func newFixture(t *testing.T, st store.Store) fixture {
	t.Helper()
	blobs := blob.NewMemStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := document.New(st, blobs, lock.NewLocal(), logger, document.Options{})
	t.Cleanup(func() { svc.Close() })
	return fixture{svc: svc, st: st, blobs: blobs}
}

func create(t *testing.T, svc service.Service, user, content string) *service.DocumentWithContent {
	t.Helper()
	doc, err := svc.Create(context.Background(), service.CreateOptions{
		UserID:    user,
		Content:   content,
		CreatedBy: store.AuthorAssistant,
	})
	require.NoError(t, err)
	return doc
}

// --- Create & Get ---

func TestService_CreateGet(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	doc, err := f.svc.Create(ctx, service.CreateOptions{
		UserID:  alice,
		ChatID:  "chat-1",
		Content: "# Remote Work\n\nRemote work is good for focus.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Remote Work", doc.Title, "title derived from the level-1 heading")
	assert.Equal(t, 1, doc.VersionNumber)
	assert.Equal(t, 8, doc.WordCount)
	assert.Equal(t, "Remote Work Remote work is good for focus.", doc.ContentPreview)
	assert.Equal(t, blob.DocumentKey(alice, doc.ID), doc.StorageKey)

	got, err := f.svc.Get(ctx, doc.ID, alice)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, doc.Content, got.Content)
	assert.Equal(t, doc.CurrentVersionID, got.CurrentVersionID)
	assert.Equal(t, 1, got.VersionNumber)

	versions, err := f.svc.ListVersions(ctx, doc.ID, alice, 0)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, "Created document", versions[0].ChangeDescription)
	assert.Equal(t, store.AuthorUser, versions[0].CreatedBy)
	assert.Contains(t, versions[0].Diff, "<ins>")
}

func TestService_CreateTitleIsMetadata(t *testing.T) {
	f := setupService(t)
	doc, err := f.svc.Create(context.Background(), service.CreateOptions{
		UserID:  alice,
		Title:   "Draft",
		Content: "Remote work is good.\n\n## Benefits\nIt saves time.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Draft", doc.Title)
}

func TestService_CreateValidation(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, service.CreateOptions{Content: "x"})
	assert.ErrorIs(t, err, validate.ErrInvalidUser)

	_, err = f.svc.Create(ctx, service.CreateOptions{UserID: alice, Title: strings.Repeat("t", 300)})
	assert.ErrorIs(t, err, validate.ErrInvalidTitle)

	small := document.New(f.st, blob.NewMemStore(), lock.NewLocal(), nil, document.Options{MaxContent: 4})
	_, err = small.Create(ctx, service.CreateOptions{UserID: alice, Content: "too long"})
	assert.ErrorIs(t, err, validate.ErrContentTooLarge)
}

func TestService_GetMissing(t *testing.T) {
	f := setupService(t)
	got, err := f.svc.Get(context.Background(), "00000000-0000-4000-8000-000000000000", alice)
	require.NoError(t, err)
	assert.Nil(t, got)
}

// --- Versions ---

func TestService_VersionMonotonicity(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	doc := create(t, f.svc, alice, "v1")

	for i := 2; i <= 4; i++ {
		res, err := f.svc.Update(ctx, doc.ID, alice, fmt.Sprintf("v%d", i), service.UpdateOptions{})
		require.NoError(t, err)
		assert.Equal(t, i, res.VersionNumber)
	}

	versions, err := f.svc.ListVersions(ctx, doc.ID, alice, 0)
	require.NoError(t, err)
	require.Len(t, versions, 4)
	for i, v := range versions {
		assert.Equal(t, 4-i, v.VersionNumber, "newest first, no gaps")
	}

	limited, err := f.svc.ListVersions(ctx, doc.ID, alice, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestService_PointerConsistency(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	doc := create(t, f.svc, alice, "first")

	_, err := f.svc.Update(ctx, doc.ID, alice, "second", service.UpdateOptions{ChangeDescription: "rewrite"})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, doc.ID, alice)
	require.NoError(t, err)
	v, err := f.svc.GetVersion(ctx, got.CurrentVersionID, alice)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, got.Content, v.Content)
	assert.Equal(t, "second", v.Content)
	assert.Equal(t, "rewrite", v.ChangeDescription)
}

func TestService_RestoreRoundTrip(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	doc := create(t, f.svc, alice, "A")
	v1 := doc.CurrentVersionID

	v2doc, err := f.svc.Update(ctx, doc.ID, alice, "B", service.UpdateOptions{})
	require.NoError(t, err)

	restored, err := f.svc.RestoreVersion(ctx, v1, alice)
	require.NoError(t, err)
	assert.Equal(t, 3, restored.VersionNumber)
	assert.Equal(t, "A", restored.Content)

	versions, err := f.svc.ListVersions(ctx, doc.ID, alice, 0)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, "Restored from version 1", versions[0].ChangeDescription)
	assert.Equal(t, store.AuthorUser, versions[0].CreatedBy)

	old1, err := f.svc.GetVersion(ctx, v1, alice)
	require.NoError(t, err)
	assert.Equal(t, "A", old1.Content)
	old2, err := f.svc.GetVersion(ctx, v2doc.CurrentVersionID, alice)
	require.NoError(t, err)
	assert.Equal(t, "B", old2.Content)
}

func TestService_UpdateKeepsOrDerivesTitle(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	untitled := create(t, f.svc, alice, "no heading yet")
	res, err := f.svc.Update(ctx, untitled.ID, alice, "# Now Titled\nbody", service.UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Now Titled", res.Title)

	res, err = f.svc.Update(ctx, untitled.ID, alice, "# Another\nbody", service.UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Now Titled", res.Title, "an existing title is kept")

	title := "Renamed"
	res, err = f.svc.Update(ctx, untitled.ID, alice, "body", service.UpdateOptions{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", res.Title)
}

// --- Edit ---

func TestService_Edit(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	doc := create(t, f.svc, alice, "Remote work is good.")

	res, err := f.svc.Edit(ctx, doc.ID, alice, func(current string) (string, error) {
		return strings.Replace(current, "good", "excellent", 1), nil
	}, service.UpdateOptions{CreatedBy: store.AuthorAssistant, ChangeDescription: "stronger word"})
	require.NoError(t, err)
	assert.Equal(t, "Remote work is excellent.", res.Content)
	assert.Equal(t, 2, res.VersionNumber)

	v, err := f.svc.GetVersion(ctx, res.CurrentVersionID, alice)
	require.NoError(t, err)
	assert.Equal(t, store.AuthorAssistant, v.CreatedBy)
	assert.Contains(t, v.Diff, "<del>good</del>")
	assert.Contains(t, v.Diff, "<ins>excellent</ins>")
}

func TestService_EditErrorWritesNothing(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	doc := create(t, f.svc, alice, "text")
	sentinel := errors.New("no match")

	_, err := f.svc.Edit(ctx, doc.ID, alice, func(string) (string, error) {
		return "", sentinel
	}, service.UpdateOptions{})
	assert.ErrorIs(t, err, sentinel)

	versions, err := f.svc.ListVersions(ctx, doc.ID, alice, 0)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestService_BaseVersionConflict(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	doc := create(t, f.svc, alice, "one")
	base := doc.CurrentVersionID

	_, err := f.svc.Update(ctx, doc.ID, alice, "two", service.UpdateOptions{BaseVersionID: base})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, doc.ID, alice, "stale", service.UpdateOptions{BaseVersionID: base})
	assert.ErrorIs(t, err, store.ErrConflict)

	got, err := f.svc.Get(ctx, doc.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, "two", got.Content)
}

func TestService_ConcurrentEditsSerialised(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	doc := create(t, f.svc, alice, "start")

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Edit(ctx, doc.ID, alice, func(current string) (string, error) {
				return current + fmt.Sprintf("\nline %d", i), nil
			}, service.UpdateOptions{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := f.svc.Get(ctx, doc.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, writers+1, got.VersionNumber)
	for i := range writers {
		assert.Contains(t, got.Content, fmt.Sprintf("line %d", i), "no edit was lost")
	}
}

// --- Ownership ---

func TestService_OwnershipIsolation(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	doc := create(t, f.svc, alice, "private")

	got, err := f.svc.Get(ctx, doc.ID, bob)
	require.NoError(t, err)
	assert.Nil(t, got)

	v, err := f.svc.GetVersion(ctx, doc.CurrentVersionID, bob)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = f.svc.ListVersions(ctx, doc.ID, bob, 0)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.svc.Update(ctx, doc.ID, bob, "mine now", service.UpdateOptions{})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.svc.RestoreVersion(ctx, doc.CurrentVersionID, bob)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, f.svc.Delete(ctx, doc.ID, bob), store.ErrNotFound)

	_, err = f.svc.Diff(ctx, doc.ID, bob, 1, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)

	docs, err := f.svc.List(ctx, bob, "")
	require.NoError(t, err)
	assert.Empty(t, docs)

	still, err := f.svc.Get(ctx, doc.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, "private", still.Content)
}

// --- Storage failures ---

// failingStore fails every AppendVersion after the blobs are written.
type failingStore struct {
	store.Store
}

func (failingStore) AppendVersion(context.Context, *store.Document, *store.Version, string) error {
	return errors.New("database unavailable")
}

func TestService_FailedCommitNeverServed(t *testing.T) {
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "quill.db"))
	require.NoError(t, err)
	require.NoError(t, st.Init())
	f := newFixture(t, failingStore{Store: st})
	ctx := context.Background()

	doc := create(t, f.svc, alice, "committed")

	_, err = f.svc.Update(ctx, doc.ID, alice, "never committed", service.UpdateOptions{})
	require.Error(t, err)

	// Only the version blob was written; the current blob still names v1.
	got, err := f.svc.Get(ctx, doc.ID, alice)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "committed", got.Content)
	assert.Equal(t, 1, got.VersionNumber)
	assert.Equal(t, doc.CurrentVersionID, got.CurrentVersionID)
}

// sharedServices returns two services over one store and one blob store,
// each with its own in-process locks, like a server and a CLI call
// sharing a workspace.
func sharedServices(t *testing.T) (a, b *document.Service, blobs *blob.MemStore) {
	t.Helper()
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "quill.db"))
	require.NoError(t, err)
	require.NoError(t, st.Init())
	blobs = blob.NewMemStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a = document.New(st, blobs, lock.NewLocal(), logger, document.Options{})
	b = document.New(st, blobs, lock.NewLocal(), logger, document.Options{})
	t.Cleanup(func() { a.Close() })
	return a, b, blobs
}

func TestService_RacingWriterCannotOverwriteVersion(t *testing.T) {
	a, b, _ := sharedServices(t)
	ctx := context.Background()
	doc := create(t, a, alice, "original")

	var fromB *service.DocumentWithContent
	_, err := a.Edit(ctx, doc.ID, alice, func(string) (string, error) {
		var err error
		fromB, err = b.Update(ctx, doc.ID, alice, "from B", service.UpdateOptions{})
		require.NoError(t, err)
		return "from A", nil
	}, service.UpdateOptions{})
	assert.ErrorIs(t, err, store.ErrConflict)
	require.NotNil(t, fromB)
	require.Equal(t, 2, fromB.VersionNumber)

	v, err := a.GetVersion(ctx, fromB.CurrentVersionID, alice)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "from B", v.Content)

	got, err := a.Get(ctx, doc.ID, alice)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "from B", got.Content)
	assert.Equal(t, fromB.CurrentVersionID, got.CurrentVersionID)

	versions, err := a.ListVersions(ctx, doc.ID, alice, 0)
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestService_ForeignVersionBlobNotServed(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	doc := create(t, f.svc, alice, "one")
	res, err := f.svc.Update(ctx, doc.ID, alice, "two", service.UpdateOptions{})
	require.NoError(t, err)

	// Replace v2's blob with a well-formed object for another version.
	key := blob.VersionKey(alice, doc.ID, 2)
	require.NoError(t, blob.PutJSON(ctx, f.blobs, key, blob.VersionObject{
		VersionID: "not-v2", DocumentID: doc.ID, VersionNumber: 2,
		Content: "intruder", Checksum: blob.Checksum("intruder"),
	}))

	v, err := f.svc.GetVersion(ctx, res.CurrentVersionID, alice)
	require.NoError(t, err)
	assert.Nil(t, v, "a blob naming another version is not content")

	_, err = f.svc.Diff(ctx, doc.ID, alice, 1, 2)
	assert.ErrorIs(t, err, blob.ErrCorrupt)
}

func TestService_AbandonedVersionBlob(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	doc := create(t, f.svc, alice, "one")
	key := blob.VersionKey(alice, doc.ID, 2)

	// A writer that is still inside its timeout holds the key.
	require.NoError(t, blob.PutJSON(ctx, f.blobs, key, blob.VersionObject{
		VersionID: "in-flight", DocumentID: doc.ID, VersionNumber: 2,
		CreatedAt: time.Now().Unix(),
	}))
	_, err := f.svc.Update(ctx, doc.ID, alice, "two", service.UpdateOptions{})
	assert.ErrorIs(t, err, store.ErrConflict)

	// Long past any timeout, an uncommitted blob is reclaimed.
	require.NoError(t, blob.PutJSON(ctx, f.blobs, key, blob.VersionObject{
		VersionID: "crashed", DocumentID: doc.ID, VersionNumber: 2,
		CreatedAt: time.Now().Add(-time.Hour).Unix(),
	}))
	res, err := f.svc.Update(ctx, doc.ID, alice, "two", service.UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.VersionNumber)

	v, err := f.svc.GetVersion(ctx, res.CurrentVersionID, alice)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "two", v.Content)
}

func TestService_BlobsCarryFullRecord(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	doc := create(t, f.svc, alice, "Tides rise.")
	res, err := f.svc.Update(ctx, doc.ID, alice, "Tides rise twice daily.", service.UpdateOptions{
		ChangeDescription: "Added frequency",
		CreatedBy:         store.AuthorAssistant,
	})
	require.NoError(t, err)

	vo, err := blob.GetVersion(ctx, f.blobs, blob.VersionKey(alice, doc.ID, 2), res.CurrentVersionID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, vo.DocumentID)
	assert.Equal(t, 2, vo.VersionNumber)
	assert.Equal(t, "Tides rise twice daily.", vo.Content)
	assert.Equal(t, "Added frequency", vo.ChangeDescription)
	assert.Equal(t, string(store.AuthorAssistant), vo.CreatedBy)
	assert.Equal(t, 4, vo.WordCount)
	assert.NotEmpty(t, vo.Diff)
	assert.NotZero(t, vo.CreatedAt)

	do, err := blob.GetDocument(ctx, f.blobs, doc.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, res.CurrentVersionID, do.VersionID)
	assert.Equal(t, 4, do.WordCount)
	assert.Equal(t, res.WordCount, do.WordCount)
}

func TestService_MissingBlobReadsAsNil(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	doc := create(t, f.svc, alice, "content")

	require.NoError(t, f.blobs.Delete(ctx, doc.StorageKey))
	require.NoError(t, f.blobs.Delete(ctx, blob.VersionKey(alice, doc.ID, 1)))

	got, err := f.svc.Get(ctx, doc.ID, alice)
	require.NoError(t, err)
	assert.Nil(t, got)

	v, err := f.svc.GetVersion(ctx, doc.CurrentVersionID, alice)
	require.NoError(t, err)
	assert.Nil(t, v)
}

// --- Delete ---

func TestService_Delete(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	doc := create(t, f.svc, alice, "one")
	_, err := f.svc.Update(ctx, doc.ID, alice, "two", service.UpdateOptions{})
	require.NoError(t, err)
	require.Equal(t, 3, f.blobs.Len(), "current blob plus two version blobs")

	require.NoError(t, f.svc.Delete(ctx, doc.ID, alice))
	assert.Equal(t, 0, f.blobs.Len())

	got, err := f.svc.Get(ctx, doc.ID, alice)
	require.NoError(t, err)
	assert.Nil(t, got)

	v, err := f.svc.GetVersion(ctx, doc.CurrentVersionID, alice)
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.ErrorIs(t, f.svc.Delete(ctx, doc.ID, alice), store.ErrNotFound)
}

func TestService_DeleteToleratesMissingBlobs(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	doc := create(t, f.svc, alice, "one")
	require.NoError(t, f.blobs.Delete(ctx, doc.StorageKey))

	require.NoError(t, f.svc.Delete(ctx, doc.ID, alice))
	docs, err := f.svc.List(ctx, alice, "")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

// --- List & Diff ---

func TestService_ListByChat(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	for _, chat := range []string{"a", "a", "b"} {
		_, err := f.svc.Create(ctx, service.CreateOptions{UserID: alice, ChatID: chat, Content: chat})
		require.NoError(t, err)
	}

	all, err := f.svc.List(ctx, alice, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	inA, err := f.svc.List(ctx, alice, "a")
	require.NoError(t, err)
	assert.Len(t, inA, 2)
}

func TestService_Diff(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	doc := create(t, f.svc, alice, "line one\nline two\n")
	_, err := f.svc.Update(ctx, doc.ID, alice, "line one\nline 2\n", service.UpdateOptions{})
	require.NoError(t, err)

	res, err := f.svc.Diff(ctx, doc.ID, alice, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "v1", res.Old)
	assert.Equal(t, "v2", res.New)
	assert.Contains(t, res.Diff, "- ")
	assert.Contains(t, res.Diff, "+ ")

	_, err = f.svc.Diff(ctx, doc.ID, alice, 1, 9)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// --- Open ---

func TestOpen_Workspace(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx, false, false, ""))

	svc, err := document.Open(ctx, &config.Config{}, nil)
	require.NoError(t, err)
	defer svc.Close()

	doc := create(t, svc, alice, "# On Disk\nstored as files")
	_, err = os.Stat(filepath.Join(dir, config.Dir, repo.BlobDir, "documents", alice, doc.ID+".json"))
	assert.NoError(t, err, "current blob written under .quill/blobs")
}

func TestOpen_NotInitialised(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := document.Open(context.Background(), &config.Config{}, nil)
	assert.ErrorIs(t, err, repo.ErrNotInitialised)
}
