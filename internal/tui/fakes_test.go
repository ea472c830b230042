package tui

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/damacus/iron-browse/internal/models"
	"github.com/damacus/iron-browse/internal/services"
)

var fakeTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// memAccount is an in-memory Account with one handle per container
type memAccount struct {
	containers map[string]*memHandle
	listErr    error
}

func newMemAccount() *memAccount {
	return &memAccount{containers: map[string]*memHandle{}}
}

func (a *memAccount) add(name string, objects map[string]string) *memHandle {
	h := &memHandle{name: name, objects: objects}
	a.containers[name] = h
	return h
}

func (a *memAccount) ListContainers(ctx context.Context) ([]models.ContainerInfo, error) {
	if a.listErr != nil {
		return nil, a.listErr
	}
	var out []models.ContainerInfo
	for name := range a.containers {
		out = append(out, models.ContainerInfo{Name: name, CreationDate: fakeTime})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (a *memAccount) OpenContainer(ctx context.Context, name string) (services.Handle, error) {
	h, ok := a.containers[name]
	if !ok {
		return nil, &services.Error{Kind: services.KindNotFound, Op: "open container", Err: errors.New(name)}
	}
	return h, nil
}

type memHandle struct {
	name string

	mu      sync.Mutex
	objects map[string]string
	// block makes ListAll wait for the context
	block bool
}

func (h *memHandle) Container() string { return h.name }

func (h *memHandle) records(prefix string) []models.ObjectRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []models.ObjectRecord
	for k, v := range h.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, models.ObjectRecord{Key: k, Size: int64(len(v)), LastModified: fakeTime})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (h *memHandle) ListEntries(ctx context.Context, prefix, token string) (models.Page, error) {
	return models.Page{Objects: h.records(prefix)}, nil
}

func (h *memHandle) ListAll(ctx context.Context, prefix string) ([]models.ObjectRecord, error) {
	if h.block {
		<-ctx.Done()
		return nil, services.Wrap("list", ctx.Err())
	}
	return h.records(prefix), nil
}

func (h *memHandle) get(key string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.objects[key]
	if !ok {
		return "", &services.Error{Kind: services.KindNotFound, Err: errors.New(key)}
	}
	return v, nil
}

func (h *memHandle) GetMetadata(ctx context.Context, key string) (models.File, error) {
	v, err := h.get(key)
	if err != nil {
		return models.File{}, err
	}
	return models.File{Key: key, Size: int64(len(v)), LastModified: fakeTime, ContentType: "text/plain"}, nil
}

func (h *memHandle) Download(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	v, err := h.get(key)
	if err != nil {
		return nil, 0, err
	}
	return io.NopCloser(strings.NewReader(v)), int64(len(v)), nil
}

func (h *memHandle) ReadHead(ctx context.Context, key string, n int64) ([]byte, error) {
	v, err := h.get(key)
	if err != nil {
		return nil, err
	}
	if int64(len(v)) > n {
		v = v[:n]
	}
	return []byte(v), nil
}

func (h *memHandle) Copy(ctx context.Context, src, dst string) error {
	v, err := h.get(src)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.objects[dst] = v
	return nil
}

func (h *memHandle) Remove(ctx context.Context, key string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.objects, key)
	return nil
}
