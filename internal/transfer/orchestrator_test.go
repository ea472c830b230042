package transfer

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damacus/iron-browse/internal/models"
	"github.com/damacus/iron-browse/internal/services"
)

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]string
	fail    map[string]error
	listErr error
	// when set, Download blocks until the channel is closed
	gate    chan struct{}
	started chan string
	copied  map[string]string
	removed []string
}

func newFakeBucket(objects map[string]string) *fakeBucket {
	return &fakeBucket{objects: objects, fail: map[string]error{}, copied: map[string]string{}}
}

func (b *fakeBucket) ListAll(ctx context.Context, prefix string) ([]models.ObjectRecord, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}
	var out []models.ObjectRecord
	for k, v := range b.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, models.ObjectRecord{Key: k, Size: int64(len(v))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (b *fakeBucket) Download(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	if b.started != nil {
		b.started <- key
	}
	if b.gate != nil {
		<-b.gate
	}
	if err := b.fail[key]; err != nil {
		return nil, 0, err
	}
	v, ok := b.objects[key]
	if !ok {
		return nil, 0, &services.Error{Kind: services.KindNotFound, Err: errors.New("missing")}
	}
	return io.NopCloser(strings.NewReader(v)), int64(len(v)), nil
}

func (b *fakeBucket) Copy(ctx context.Context, src, dst string) error {
	if err := b.fail[src]; err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.copied[src] = dst
	return nil
}

func (b *fakeBucket) Remove(ctx context.Context, key string) error {
	if err := b.fail[key]; err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removed = append(b.removed, key)
	return nil
}

// tally folds events the same way the UI does
type tally struct {
	planned   *Planned
	started   []string
	completed int
	bytes     int64
	failures  []FileError
	finished  *Finished
}

func collect(t *testing.T, events <-chan Event) tally {
	t.Helper()
	var out tally
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				require.NotNil(t, out.finished, "channel closed without Finished")
				return out
			}
			switch e := ev.(type) {
			case Planned:
				require.Nil(t, out.planned, "Planned sent twice")
				out.planned = &e
			case Started:
				require.NotNil(t, out.planned, "Started before Planned")
				out.started = append(out.started, e.Path)
			case Progressed:
				out.bytes += e.Bytes
			case Completed:
				out.completed++
			case Failed:
				out.failures = append(out.failures, FileError{Path: e.Path, Kind: e.Kind, Message: e.Err.Error()})
			case Finished:
				out.finished = &e
			}
		case <-timeout:
			t.Fatal("timed out waiting for events")
		}
	}
}

func TestNew_ClampsWorkers(t *testing.T) {
	assert.Equal(t, DefaultWorkers, New(0, zerolog.Nop()).Workers())
	assert.Equal(t, 1, New(-3, zerolog.Nop()).Workers())
	assert.Equal(t, MaxWorkers, New(1000, zerolog.Nop()).Workers())
	assert.Equal(t, 7, New(7, zerolog.Nop()).Workers())
}

func TestDownload_SingleFile(t *testing.T) {
	bucket := newFakeBucket(map[string]string{"docs/readme.md": "hello"})
	dest := t.TempDir()

	got := collect(t, New(2, zerolog.Nop()).Download(context.Background(), bucket,
		models.File{Key: "docs/readme.md", Size: 5}, dest))

	assert.Equal(t, Planned{Files: 1, Bytes: 5}, *got.planned)
	assert.Equal(t, 1, got.completed)
	assert.Equal(t, int64(5), got.bytes)
	assert.Empty(t, got.failures)

	data, err := os.ReadFile(filepath.Join(dest, "readme.md"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestDownload_FolderPartialFailure(t *testing.T) {
	bucket := newFakeBucket(map[string]string{
		"data/reports/":            "",
		"data/reports/one.csv":     "1",
		"data/reports/two.csv":     "22",
		"data/reports/sub/three":   "333",
		"data/other/unrelated.txt": "x",
	})
	bucket.fail["data/reports/two.csv"] = errors.New("connection reset by peer")
	dest := t.TempDir()

	got := collect(t, New(3, zerolog.Nop()).Download(context.Background(), bucket,
		models.Folder{Prefix: "data/reports/"}, dest))

	require.NotNil(t, got.planned)
	assert.Equal(t, 3, got.planned.Files)
	assert.Equal(t, 2, got.completed)
	require.Len(t, got.failures, 1)
	assert.Equal(t, "data/reports/two.csv", got.failures[0].Path)
	assert.Equal(t, services.KindNetwork, got.failures[0].Kind)
	assert.Equal(t, got.planned.Files, got.completed+len(got.failures))
	assert.False(t, got.finished.Cancelled)

	// folder name is kept, layout mirrored, directories created on demand
	data, err := os.ReadFile(filepath.Join(dest, "reports", "sub", "three"))
	require.NoError(t, err)
	assert.Equal(t, "333", string(data))
	_, err = os.Stat(filepath.Join(dest, "reports", "two.csv"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dest, "other"))
	assert.True(t, os.IsNotExist(err))
}

func TestDownload_LocalWriteFailureIsRecorded(t *testing.T) {
	bucket := newFakeBucket(map[string]string{"f/a": "a", "f/b": "b"})
	dest := t.TempDir()
	// a regular file where the folder should be created
	require.NoError(t, os.WriteFile(filepath.Join(dest, "f"), []byte("x"), 0o644))

	got := collect(t, New(1, zerolog.Nop()).Download(context.Background(), bucket,
		models.Folder{Prefix: "f/"}, dest))

	assert.Equal(t, 0, got.completed)
	require.Len(t, got.failures, 2)
	for _, f := range got.failures {
		assert.Equal(t, services.KindLocalIO, f.Kind)
	}
}

func TestDownload_PlanningFailure(t *testing.T) {
	bucket := newFakeBucket(nil)
	bucket.listErr = &services.Error{Kind: services.KindAuth, Err: errors.New("denied")}

	got := collect(t, New(1, zerolog.Nop()).Download(context.Background(), bucket,
		models.Folder{Prefix: "x/"}, t.TempDir()))

	assert.Nil(t, got.planned)
	require.Error(t, got.finished.Err)
	assert.Equal(t, services.KindAuth, services.KindOf(got.finished.Err))
}

func TestDownloadJobs_RejectsEscapingKeys(t *testing.T) {
	jobs := downloadJobs([]models.ObjectRecord{
		{Key: "dir/ok.txt"},
		{Key: "dir/../../etc/passwd"},
		{Key: "dir/"},
	}, "", "/tmp/dest")

	require.Len(t, jobs, 2)
	assert.NoError(t, jobs[0].err)
	assert.Equal(t, filepath.Join("/tmp/dest", "dir", "ok.txt"), jobs[0].dest)
	require.Error(t, jobs[1].err)
	assert.Equal(t, services.KindLocalIO, services.KindOf(jobs[1].err))
}

func TestDownload_CancelStopsScheduling(t *testing.T) {
	objects := map[string]string{}
	for _, k := range []string{"a", "b", "c", "d", "e", "f"} {
		objects["dir/"+k] = k
	}
	bucket := newFakeBucket(objects)
	bucket.gate = make(chan struct{})
	bucket.started = make(chan string, 16)

	ctx, cancel := context.WithCancel(context.Background())
	events := New(2, zerolog.Nop()).Download(ctx, bucket, models.Folder{Prefix: "dir/"}, t.TempDir())

	// two workers are now blocked inside Download
	<-bucket.started
	<-bucket.started
	cancel()
	close(bucket.gate)

	got := collect(t, events)
	assert.Equal(t, 6, got.planned.Files)
	assert.True(t, got.finished.Cancelled)
	// in-flight transfers finished and were counted
	assert.Equal(t, 2, got.completed)
	assert.Empty(t, got.failures)
	assert.Equal(t, 4, got.finished.Skipped)
	assert.Equal(t, got.planned.Files, got.completed+len(got.failures)+got.finished.Skipped)
}

func TestClone_Folder(t *testing.T) {
	bucket := newFakeBucket(map[string]string{
		"src/":      "",
		"src/a":     "a",
		"src/sub/b": "bb",
	})

	got := collect(t, New(2, zerolog.Nop()).Clone(context.Background(), bucket, models.Folder{Prefix: "src/"}, "copy"))

	assert.Equal(t, 3, got.completed)
	assert.Equal(t, map[string]string{
		"src/":      "copy/",
		"src/a":     "copy/a",
		"src/sub/b": "copy/sub/b",
	}, bucket.copied)
}

func TestDelete_FolderWithFailure(t *testing.T) {
	bucket := newFakeBucket(map[string]string{"x/": "", "x/1": "1", "x/2": "2"})
	bucket.fail["x/2"] = &services.Error{Kind: services.KindAuth, Err: errors.New("denied")}

	got := collect(t, New(1, zerolog.Nop()).Delete(context.Background(), bucket, models.Folder{Prefix: "x/"}))

	assert.Equal(t, 2, got.completed)
	require.Len(t, got.failures, 1)
	assert.Equal(t, services.KindAuth, got.failures[0].Kind)
	assert.ElementsMatch(t, []string{"x/", "x/1"}, bucket.removed)
}

func TestBatchError(t *testing.T) {
	err := &BatchError{Failures: []FileError{{Path: "a"}, {Path: "b"}}}
	assert.Equal(t, "2 file(s) failed", err.Error())
	assert.Equal(t, services.KindPartialBatch, services.KindOf(err))
}
