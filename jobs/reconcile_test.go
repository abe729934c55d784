package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pawanx64/File-Sharing-Backend/models"
	"github.com/pawanx64/File-Sharing-Backend/repository"
	"github.com/pawanx64/File-Sharing-Backend/storage"
	"github.com/pawanx64/File-Sharing-Backend/testutil"
)

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type reconcileFixture struct {
	store *storage.MemoryStore
	files *repository.FileRepository
	ids   map[string]string
}

func putAt(t *testing.T, store *storage.MemoryStore, key string, at time.Time) {
	t.Helper()
	store.SetClock(func() time.Time { return at })
	_, err := store.Put(context.Background(), key, strings.NewReader("x"), 1, "text/plain")
	require.NoError(t, err)
}

func recordAt(t *testing.T, fx *reconcileFixture, key string, at time.Time) {
	t.Helper()
	f := &models.File{Filename: key, PublicID: key, SecureURL: "https://cdn/" + key, SizeInBytes: 1, UploadTime: at}
	require.NoError(t, fx.files.Create(context.Background(), f))
	fx.ids[key] = f.ID.String()
}

// newReconcileFixture lays out, relative to epoch and a 10m grace:
//
//	file-sharing/linked     object + record, old
//	file-sharing/orphan     object only, old
//	file-sharing/fresh      object only, inside grace
//	file-sharing/dangling   record only, old
//	file-sharing/pending    record only, inside grace
//	elsewhere/other         object only, outside the folder
func newReconcileFixture(t *testing.T) *reconcileFixture {
	t.Helper()
	fx := &reconcileFixture{
		store: storage.NewMemoryStore("https://cdn.example.com"),
		files: repository.NewFileRepository(testutil.NewTestDB(t)),
		ids:   map[string]string{},
	}
	old := epoch.Add(-time.Hour)
	young := epoch.Add(-time.Minute)

	putAt(t, fx.store, "file-sharing/linked", old)
	recordAt(t, fx, "file-sharing/linked", old)
	putAt(t, fx.store, "file-sharing/orphan", old)
	putAt(t, fx.store, "file-sharing/fresh", young)
	recordAt(t, fx, "file-sharing/dangling", old)
	recordAt(t, fx, "file-sharing/pending", young)
	putAt(t, fx.store, "elsewhere/other", old)
	return fx
}

func (fx *reconcileFixture) reconciler(t *testing.T, dryRun bool) *Reconciler {
	r := NewReconciler(fx.files, fx.store, ReconcileConfig{
		Folder: "file-sharing",
		Grace:  10 * time.Minute,
		DryRun: dryRun,
	}, zaptest.NewLogger(t).Sugar())
	r.now = func() time.Time { return epoch }
	return r
}

func TestReconciler_SweepsOrphansAndReportsDangling(t *testing.T) {
	fx := newReconcileFixture(t)

	report, err := fx.reconciler(t, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Objects)
	assert.Equal(t, 3, report.Records)
	assert.Equal(t, []string{"file-sharing/orphan"}, report.OrphanObjects)
	assert.Equal(t, []string{fx.ids["file-sharing/dangling"]}, report.DanglingFiles)
	assert.Equal(t, 1, report.Swept)

	assert.False(t, fx.store.Has("file-sharing/orphan"))
	assert.True(t, fx.store.Has("file-sharing/linked"))
	assert.True(t, fx.store.Has("file-sharing/fresh"))
	assert.True(t, fx.store.Has("elsewhere/other"))

	all, err := fx.files.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3, "records are never deleted")
}

func TestReconciler_DryRunDeletesNothing(t *testing.T) {
	fx := newReconcileFixture(t)

	report, err := fx.reconciler(t, true).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"file-sharing/orphan"}, report.OrphanObjects)
	assert.Zero(t, report.Swept)
	assert.True(t, fx.store.Has("file-sharing/orphan"))

	_, deletes := fx.store.Calls()
	assert.Zero(t, deletes)
}

func TestReconciler_DeleteFailureIsCounted(t *testing.T) {
	fx := newReconcileFixture(t)
	fx.store.FailDeletes(errors.New("throttled"))

	report, err := fx.reconciler(t, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.SweepFailures)
	assert.Zero(t, report.Swept)
	assert.True(t, fx.store.Has("file-sharing/orphan"))
}

type failingLister struct{}

func (failingLister) ListAll(ctx context.Context) ([]models.File, error) {
	return nil, errors.New("db down")
}

func TestReconciler_ListFailure(t *testing.T) {
	r := NewReconciler(failingLister{}, storage.NewMemoryStore(""), ReconcileConfig{Folder: "file-sharing"}, zaptest.NewLogger(t).Sugar())

	_, err := r.Run(context.Background())
	assert.ErrorContains(t, err, "list file records")
}
