// Package models contains the data structures shared by the browser packages
package models

import (
	"path"
	"strings"
	"time"
)

// Delimiter separates path segments inside object keys
const Delimiter = "/"

// Entry is one navigable item of a container level: a File or a Folder
type Entry interface {
	// Name is the display name of the entry (last path segment)
	Name() string
	// Path is the full key (File) or prefix with trailing delimiter (Folder)
	Path() string
	isEntry()
}

// File is a single object
type File struct {
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string

	// Filled only by a metadata fetch
	ContentType  string
	StorageClass string
	VersionID    string
	UserMetadata map[string]string
	Tags         map[string]string
}

func (f File) Name() string { return path.Base(f.Key) }
func (f File) Path() string { return f.Key }
func (File) isEntry()       {}

// Folder is a common prefix. BlobCount and TotalSize are computed from
// every object below the prefix and are replaced on refresh.
type Folder struct {
	Prefix    string
	BlobCount int
	TotalSize int64
}

func (f Folder) Name() string {
	return path.Base(strings.TrimSuffix(f.Prefix, Delimiter))
}
func (f Folder) Path() string { return f.Prefix }
func (Folder) isEntry()       {}

// IsFolder reports whether e is a Folder
func IsFolder(e Entry) bool {
	_, ok := e.(Folder)
	return ok
}

// ContainerInfo describes one container (bucket)
type ContainerInfo struct {
	Name         string
	CreationDate time.Time
	// Size is only meaningful when SizeKnown is set
	Size      uint64
	SizeKnown bool
}

// ObjectRecord is one raw listing row as returned by the storage layer
type ObjectRecord struct {
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string
}

// Page is one page of a recursive listing
type Page struct {
	Objects []ObjectRecord
	// NextToken is empty on the last page
	NextToken string
}

// Breadcrumb for navigation
type Breadcrumb struct {
	Name string
	Path string
}

// Breadcrumbs splits a prefix into its cumulative parent paths
func Breadcrumbs(prefix string) []Breadcrumb {
	var crumbs []Breadcrumb
	if prefix == "" {
		return crumbs
	}
	parts := strings.Split(strings.TrimSuffix(prefix, Delimiter), Delimiter)
	current := ""
	for _, part := range parts {
		current += part + Delimiter
		crumbs = append(crumbs, Breadcrumb{Name: part, Path: current})
	}
	return crumbs
}

// ParentPath returns the prefix one level above p ("" at root)
func ParentPath(p string) string {
	trimmed := strings.TrimSuffix(p, Delimiter)
	idx := strings.LastIndex(trimmed, Delimiter)
	if idx < 0 {
		return ""
	}
	return trimmed[:idx+1]
}
