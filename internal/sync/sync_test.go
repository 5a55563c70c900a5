package sync

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"documind/internal/connectivity"
	"documind/internal/localstore"
	"documind/internal/model"
	"documind/internal/remote"
	"documind/internal/sync/mocks"
)

func doc(id, name string) model.Document {
	return model.Document{
		ID:             id,
		Name:           name,
		Type:           model.FileTypePDF,
		OwnerID:        "u-admin",
		CurrentVersion: 1,
		Versions:       []model.DocumentVersion{{ID: "v1_" + id, VersionNumber: 1}},
		Tags:           []string{},
	}
}

func ids(docs []model.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func newStore(t *testing.T) *localstore.Store {
	t.Helper()
	s := localstore.New(filepath.Join(t.TempDir(), "documind.db"))
	require.NoError(t, s.Init(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var fixedNow = func() time.Time { return time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC) }

func TestMerge_NonDestructive(t *testing.T) {
	local := []model.Document{doc("A", "a"), doc("B", "b")}
	remoteDocs := []model.Document{doc("B", "b-remote"), doc("C", "c")}

	res := Merge(local, remoteDocs)

	assert.Equal(t, []string{"C", "A", "B"}, ids(res.Documents))
	assert.Equal(t, "b-remote", res.Documents[2].Name)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Replaced)
	assert.ElementsMatch(t, []string{"B", "C"}, ids(res.Changed))

	// inputs untouched
	assert.Equal(t, "b", local[1].Name)
}

func TestMerge_Cases(t *testing.T) {
	tests := []struct {
		name   string
		local  []model.Document
		remote []model.Document
		want   []string
	}{
		{name: "empty remote keeps local", local: []model.Document{doc("A", "a")}, want: []string{"A"}},
		{name: "empty local takes remote order", remote: []model.Document{doc("X", "x"), doc("Y", "y")}, want: []string{"X", "Y"}},
		{name: "new docs go to head in remote order", local: []model.Document{doc("A", "a")}, remote: []model.Document{doc("X", "x"), doc("Y", "y")}, want: []string{"X", "Y", "A"}},
		{name: "repeated remote id collapses", remote: []model.Document{doc("X", "x1"), doc("X", "x2")}, want: []string{"X"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Merge(tt.local, tt.remote)
			assert.Equal(t, tt.want, ids(res.Documents))
			assert.GreaterOrEqual(t, len(res.Documents), len(tt.local))
		})
	}
}

func TestPull_MergesAndPersists(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	local := []model.Document{doc("A", "a"), doc("B", "b")}
	require.NoError(t, localstore.SaveAll(ctx, store, localstore.Documents, local))

	r := &mocks.MockRemote{}
	r.On("FetchDocuments", mock.Anything).Return([]model.Document{doc("B", "b-remote"), doc("C", "c")}, nil)

	e := New(store, r, connectivity.NewMonitor(true), WithClock(fixedNow))
	res, err := e.Pull(ctx, local)
	require.NoError(t, err)

	assert.Equal(t, []string{"C", "A", "B"}, ids(res.Documents))
	assert.Equal(t, StatusOK, res.Outcome.Status)
	assert.Equal(t, 2, res.Outcome.Fetched)

	stored, err := localstore.GetAll[model.Document](ctx, store, localstore.Documents)
	require.NoError(t, err)
	byID := map[string]string{}
	for _, d := range stored {
		byID[d.ID] = d.Name
	}
	assert.Equal(t, map[string]string{"A": "a", "B": "b-remote", "C": "c"}, byID)

	out, ok := e.LastOutcome(OpPull)
	require.True(t, ok)
	assert.Equal(t, fixedNow(), out.At)
	r.AssertExpectations(t)
}

func TestPull_Offline(t *testing.T) {
	r := &mocks.MockRemote{}
	e := New(newStore(t), r, connectivity.NewMonitor(false))

	local := []model.Document{doc("A", "a")}
	res, err := e.Pull(context.Background(), local)
	require.NoError(t, err)
	assert.Equal(t, local, res.Documents)
	assert.Equal(t, StatusSkipped, res.Outcome.Status)
	r.AssertNotCalled(t, "FetchDocuments", mock.Anything)
}

func TestPull_FetchFailureIsNoNewData(t *testing.T) {
	r := &mocks.MockRemote{}
	r.On("FetchDocuments", mock.Anything).Return(nil, remote.ErrUnavailable)
	e := New(newStore(t), r, connectivity.NewMonitor(true))

	local := []model.Document{doc("A", "a")}
	res, err := e.Pull(context.Background(), local)
	require.NoError(t, err)
	assert.Equal(t, local, res.Documents)
	assert.Equal(t, StatusFailed, res.Outcome.Status)
	assert.ErrorIs(t, res.Outcome.Err, remote.ErrUnavailable)
}

func TestPull_SkipsInvalidRemoteDocuments(t *testing.T) {
	bad := doc("Z", "z")
	bad.CurrentVersion = 5

	r := &mocks.MockRemote{}
	r.On("FetchDocuments", mock.Anything).Return([]model.Document{bad, doc("C", "c"), {}}, nil)
	e := New(newStore(t), r, connectivity.NewMonitor(true))

	res, err := e.Pull(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, ids(res.Documents))
	assert.Equal(t, 2, res.Outcome.Rejected)
}

type failingBackend struct{ localstore.Backend }

func (failingBackend) Put(context.Context, localstore.Collection, string, []byte) error {
	return errors.New("disk full")
}

func TestPull_StoreFailureIsReturned(t *testing.T) {
	r := &mocks.MockRemote{}
	r.On("FetchDocuments", mock.Anything).Return([]model.Document{doc("C", "c")}, nil)
	e := New(failingBackend{}, r, connectivity.NewMonitor(true))

	local := []model.Document{doc("A", "a")}
	res, err := e.Pull(context.Background(), local)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, local, res.Documents)
}

func TestPushCreate(t *testing.T) {
	d := doc("new-1", "contract.pdf")

	t.Run("offline", func(t *testing.T) {
		r := &mocks.MockRemote{}
		e := New(nil, r, connectivity.NewMonitor(false))
		assert.ErrorIs(t, e.PushCreate(context.Background(), d, nil), ErrOffline)
		out, ok := e.LastOutcome(OpPushCreate)
		require.True(t, ok)
		assert.Equal(t, StatusSkipped, out.Status)
	})

	t.Run("remote failure", func(t *testing.T) {
		r := &mocks.MockRemote{}
		r.On("UploadDocument", mock.Anything, d, []remote.File(nil)).Return(&remote.StatusError{Op: "upload document", Code: 500})
		e := New(nil, r, connectivity.NewMonitor(true))

		err := e.PushCreate(context.Background(), d, nil)
		assert.ErrorIs(t, err, ErrRemoteWrite)
		var se *remote.StatusError
		assert.ErrorAs(t, err, &se)
		out, _ := e.LastOutcome(OpPushCreate)
		assert.Equal(t, StatusFailed, out.Status)
		assert.Equal(t, "new-1", out.DocID)
	})

	t.Run("success", func(t *testing.T) {
		r := &mocks.MockRemote{}
		r.On("UploadDocument", mock.Anything, d, []remote.File(nil)).Return(nil)
		e := New(nil, r, connectivity.NewMonitor(true))

		require.NoError(t, e.PushCreate(context.Background(), d, nil))
		r.AssertExpectations(t)
	})
}

func TestPushStatus_NeverFails(t *testing.T) {
	patch := model.StatusPatch{IsTrashed: model.Bool(true)}

	r := &mocks.MockRemote{}
	r.On("PatchDocumentStatus", mock.Anything, "d1", patch).Return(errors.New("502"))
	e := New(nil, r, connectivity.NewMonitor(true))

	e.PushStatus(context.Background(), "d1", patch)
	out, ok := e.LastOutcome(OpPushStatus)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, "502", out.Error)

	offline := New(nil, r, connectivity.NewMonitor(false))
	offline.PushStatus(context.Background(), "d1", patch)
	out, _ = offline.LastOutcome(OpPushStatus)
	assert.Equal(t, StatusSkipped, out.Status)
	r.AssertNumberOfCalls(t, "PatchDocumentStatus", 1)
}

func TestFetchThenApply_MergesIntoLatestLocal(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	r := &mocks.MockRemote{}
	r.On("FetchDocuments", mock.Anything).Return([]model.Document{doc("B", "b-remote"), doc("C", "c")}, nil)
	e := New(store, r, connectivity.NewMonitor(true))

	snap := e.Fetch(ctx)
	assert.Equal(t, 2, snap.Fetched)
	_, recorded := e.LastOutcome(OpPull)
	assert.False(t, recorded)

	// local list changed while the fetch was in flight
	local := []model.Document{doc("A", "a"), doc("B", "b"), doc("D", "d")}
	res, err := e.Apply(ctx, local, snap)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B", "D"}, ids(res.Documents))
	assert.Equal(t, StatusOK, res.Outcome.Status)
}

func TestApply_SkippedSnapshotKeepsLocal(t *testing.T) {
	e := New(newStore(t), &mocks.MockRemote{}, connectivity.NewMonitor(false))

	snap := e.Fetch(context.Background())
	local := []model.Document{doc("A", "a")}
	res, err := e.Apply(context.Background(), local, snap)
	require.NoError(t, err)
	assert.Equal(t, local, res.Documents)
	assert.Equal(t, StatusSkipped, res.Outcome.Status)
}
