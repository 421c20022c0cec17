package archive

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/core/storage"
	"inventory-reconciler/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testCfg = storage.Config{Bucket: "reports", Prefix: "/runs/"}

func objects(infos ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(infos))
	for _, o := range infos {
		ch <- o
	}
	close(ch)
	return ch
}

func TestEnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("Exists", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", ctx, "reports").Return(true, nil)
		require.NoError(t, New(m, testCfg).EnsureBucket(ctx))
		m.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Created", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", ctx, "reports").Return(false, nil)
		m.On("MakeBucket", ctx, "reports", minio.MakeBucketOptions{}).Return(nil)
		require.NoError(t, New(m, testCfg).EnsureBucket(ctx))
		m.AssertExpectations(t)
	})

	t.Run("Check fails", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", ctx, "reports").Return(false, errors.New("denied"))
		assert.ErrorContains(t, New(m, testCfg).EnsureBucket(ctx), "denied")
	})
}

func TestKey(t *testing.T) {
	a := New(new(mocks.Client), testCfg)
	assert.Equal(t, "runs/gw1.example.org/abc.json", a.Key("gw1.example.org", "abc"))
	assert.Equal(t, "runs/_unknown/abc.json", a.Key("", "abc"))
}

func TestStoreAndLoad(t *testing.T) {
	ctx := context.Background()
	m := new(mocks.Client)
	a := New(m, testCfg)

	report := &reconcile.Report{
		RunID:     "run-1",
		Subject:   "gw1.example.org",
		SubjectID: 3,
		Order:     []reconcile.TypeName{"Device", "Netbox"},
		Types:     map[reconcile.TypeName]*reconcile.TypeStats{"Device": {Records: 1, Inserted: 1}},
		Events:    2,
	}

	var uploaded string
	m.On("PutObject", ctx, "reports", "runs/gw1.example.org/run-1.json", mock.Anything, mock.AnythingOfType("int64"),
		mock.MatchedBy(func(o minio.PutObjectOptions) bool { return o.ContentType == "application/json" })).
		Run(func(args mock.Arguments) {
			body, _ := io.ReadAll(args.Get(3).(io.Reader))
			uploaded = string(body)
		}).
		Return(minio.UploadInfo{}, nil)

	key, err := a.Store(ctx, report)
	require.NoError(t, err)
	assert.Equal(t, "runs/gw1.example.org/run-1.json", key)
	assert.Contains(t, uploaded, `"run_id": "run-1"`)

	m.On("GetObject", ctx, "reports", key, minio.GetObjectOptions{}).
		Return(io.NopCloser(strings.NewReader(uploaded)), nil)

	loaded, err := a.Load(ctx, "gw1.example.org", "run-1")
	require.NoError(t, err)
	assert.Equal(t, report.SubjectID, loaded.SubjectID)
	assert.Equal(t, report.Order, loaded.Order)
	assert.Equal(t, 1, loaded.Stats("Device").Inserted)
	assert.Equal(t, 2, loaded.Events)
}

func TestStoreFailure(t *testing.T) {
	m := new(mocks.Client)
	m.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("quota exceeded"))

	_, err := New(m, testCfg).Store(context.Background(), &reconcile.Report{RunID: "r", Subject: "s"})
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("Fetch fails", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("GetObject", ctx, "reports", "runs/s/r.json", minio.GetObjectOptions{}).Return(nil, errors.New("offline"))
		_, err := New(m, testCfg).Load(ctx, "s", "r")
		assert.ErrorContains(t, err, "offline")
	})

	t.Run("Corrupt body", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("GetObject", ctx, "reports", "runs/s/r.json", minio.GetObjectOptions{}).
			Return(io.NopCloser(strings.NewReader("{")), nil)
		_, err := New(m, testCfg).Load(ctx, "s", "r")
		assert.ErrorContains(t, err, "failed to decode report")
	})
}

func TestListAndPrune(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	listing := func() <-chan minio.ObjectInfo {
		return objects(
			minio.ObjectInfo{Key: "runs/gw1/a.json", Size: 10, LastModified: base},
			minio.ObjectInfo{Key: "runs/gw1/c.json", Size: 30, LastModified: base.Add(2 * time.Hour)},
			minio.ObjectInfo{Key: "runs/gw1/notes.txt", LastModified: base.Add(3 * time.Hour)},
			minio.ObjectInfo{Key: "runs/gw1/b.json", Size: 20, LastModified: base.Add(time.Hour)},
		)
	}
	opts := minio.ListObjectsOptions{Prefix: "runs/gw1/", Recursive: true}

	m := new(mocks.Client)
	m.On("ListObjects", ctx, "reports", opts).Return(listing()).Once()
	entries, err := New(m, testCfg).List(ctx, "gw1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{entries[0].RunID, entries[1].RunID, entries[2].RunID})

	var removed []string
	m.On("ListObjects", ctx, "reports", opts).Return(listing()).Once()
	m.On("RemoveObjects", ctx, "reports", mock.Anything, minio.RemoveObjectsOptions{}).
		Run(func(args mock.Arguments) {
			for o := range args.Get(2).(<-chan minio.ObjectInfo) {
				removed = append(removed, o.Key)
			}
		}).
		Return(nil)

	n, err := New(m, testCfg).Prune(ctx, "gw1", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"runs/gw1/b.json", "runs/gw1/a.json"}, removed)
}

func TestListError(t *testing.T) {
	ctx := context.Background()
	m := new(mocks.Client)
	m.On("ListObjects", ctx, "reports", mock.Anything).Return(objects(minio.ObjectInfo{Err: errors.New("denied")}))

	_, err := New(m, testCfg).List(ctx, "gw1")
	assert.ErrorContains(t, err, "denied")
}
