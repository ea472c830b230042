package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/damacus/iron-browse/internal/models"
	"github.com/damacus/iron-browse/internal/services"
)

// Source is the part of a container handle a download needs
type Source interface {
	ListAll(ctx context.Context, prefix string) ([]models.ObjectRecord, error)
	Download(ctx context.Context, key string) (io.ReadCloser, int64, error)
}

// Download copies target into destRoot. A file lands at destRoot/<name>;
// a folder is enumerated completely first and mirrored under
// destRoot/<folder name>/ with the remote relative layout.
func (o *Orchestrator) Download(ctx context.Context, src Source, target models.Entry, destRoot string) <-chan Event {
	plan := func(ctx context.Context) ([]job, error) {
		switch t := target.(type) {
		case models.File:
			return []job{{key: t.Key, size: t.Size, dest: filepath.Join(destRoot, t.Name())}}, nil
		case models.Folder:
			objects, err := src.ListAll(ctx, t.Prefix)
			if err != nil {
				return nil, err
			}
			return downloadJobs(objects, models.ParentPath(t.Prefix), destRoot), nil
		}
		return nil, fmt.Errorf("unsupported entry %T", target)
	}

	work := func(ctx context.Context, j job, progress func(int64)) error {
		return fetch(ctx, src, j, progress)
	}

	return o.run(ctx, "download", plan, work)
}

// downloadJobs maps every object below base to a path under destRoot.
// Directory markers are skipped; keys that would leave destRoot fail.
func downloadJobs(objects []models.ObjectRecord, base, destRoot string) []job {
	jobs := make([]job, 0, len(objects))
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, models.Delimiter) {
			continue
		}
		rel := filepath.FromSlash(strings.TrimPrefix(obj.Key, base))
		j := job{key: obj.Key, size: obj.Size, dest: filepath.Join(destRoot, rel)}
		if !filepath.IsLocal(rel) {
			j.err = &services.Error{
				Kind: services.KindLocalIO,
				Op:   "download",
				Err:  fmt.Errorf("key %q escapes the destination directory", obj.Key),
			}
		}
		jobs = append(jobs, j)
	}
	return jobs
}

func fetch(ctx context.Context, src Source, j job, progress func(int64)) (err error) {
	reader, _, err := src.Download(ctx, j.key)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	if err := os.MkdirAll(filepath.Dir(j.dest), 0o755); err != nil {
		return services.Wrap("create directory", err)
	}
	f, err := os.Create(j.dest)
	if err != nil {
		return services.Wrap("create file", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = services.Wrap("close file", cerr)
		}
		if err != nil {
			_ = os.Remove(j.dest)
		}
	}()

	pw := &progressWriter{report: progress}
	_, err = io.Copy(io.MultiWriter(f, pw), reader)
	pw.flush()
	if err != nil {
		return services.Wrap("download", err)
	}
	return nil
}
