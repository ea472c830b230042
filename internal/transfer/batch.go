package transfer

import (
	"context"
	"fmt"
	"strings"

	"github.com/damacus/iron-browse/internal/models"
	"github.com/damacus/iron-browse/internal/services"
)

// Lister enumerates every key under a prefix
type Lister interface {
	ListAll(ctx context.Context, prefix string) ([]models.ObjectRecord, error)
}

// Copier is the part of a container handle a clone needs
type Copier interface {
	Lister
	Copy(ctx context.Context, src, dst string) error
}

// Remover is the part of a container handle a delete needs
type Remover interface {
	Lister
	Remove(ctx context.Context, key string) error
}

// Clone copies target to newPath inside the same container. For a folder
// newPath is the new prefix and every key below the old prefix, directory
// markers included, is copied to the same relative position.
func (o *Orchestrator) Clone(ctx context.Context, dst Copier, target models.Entry, newPath string) <-chan Event {
	plan := func(ctx context.Context) ([]job, error) {
		switch t := target.(type) {
		case models.File:
			return []job{{key: t.Key, size: t.Size, dest: newPath}}, nil
		case models.Folder:
			newPrefix := newPath
			if !strings.HasSuffix(newPrefix, models.Delimiter) {
				newPrefix += models.Delimiter
			}
			objects, err := dst.ListAll(ctx, t.Prefix)
			if err != nil {
				return nil, err
			}
			jobs := make([]job, 0, len(objects))
			for _, obj := range objects {
				jobs = append(jobs, job{
					key:  obj.Key,
					size: obj.Size,
					dest: newPrefix + strings.TrimPrefix(obj.Key, t.Prefix),
				})
			}
			return jobs, nil
		}
		return nil, fmt.Errorf("unsupported entry %T", target)
	}

	work := func(ctx context.Context, j job, progress func(int64)) error {
		if err := dst.Copy(ctx, j.key, j.dest); err != nil {
			return err
		}
		progress(j.size)
		return nil
	}

	return o.run(ctx, "clone", plan, work)
}

// Delete removes target; a folder is removed key by key, markers included
func (o *Orchestrator) Delete(ctx context.Context, dst Remover, target models.Entry) <-chan Event {
	plan := func(ctx context.Context) ([]job, error) {
		switch t := target.(type) {
		case models.File:
			return []job{{key: t.Key, size: t.Size}}, nil
		case models.Folder:
			objects, err := dst.ListAll(ctx, t.Prefix)
			if err != nil {
				return nil, err
			}
			jobs := make([]job, 0, len(objects))
			for _, obj := range objects {
				jobs = append(jobs, job{key: obj.Key, size: obj.Size})
			}
			return jobs, nil
		}
		return nil, fmt.Errorf("unsupported entry %T", target)
	}

	work := func(ctx context.Context, j job, progress func(int64)) error {
		if err := dst.Remove(ctx, j.key); err != nil {
			return err
		}
		progress(j.size)
		return nil
	}

	return o.run(ctx, "delete", plan, work)
}

// FileError records one file that did not make it
type FileError struct {
	Path    string
	Kind    services.Kind
	Message string
}

// BatchError reports a batch where some files failed
type BatchError struct {
	Failures []FileError
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d file(s) failed", len(e.Failures))
}

// Kind implements the classification used by services.KindOf
func (e *BatchError) Kind() services.Kind { return services.KindPartialBatch }
