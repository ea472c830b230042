// Package hierarchy turns a flat, delimiter-separated key space into the
// entries of a single directory level.
package hierarchy

import (
	"sort"
	"strings"

	"github.com/damacus/iron-browse/internal/models"
)

// Build returns the direct children of currentPath found in objects.
//
// Files are keys with no further delimiter after currentPath. Every distinct
// first segment followed by a delimiter becomes one Folder whose stats cover
// all objects below it at any depth. Directory markers (keys ending in the
// delimiter) never surface as files and are not counted as blobs.
// The result is ordered folders first, then files, each by name.
func Build(objects []models.ObjectRecord, currentPath string) []models.Entry {
	folders := make(map[string]*models.Folder)
	var folderOrder []string
	var files []models.File

	for _, obj := range objects {
		if !strings.HasPrefix(obj.Key, currentPath) {
			continue
		}
		rest := obj.Key[len(currentPath):]
		if rest == "" {
			// marker of currentPath itself
			continue
		}

		idx := strings.Index(rest, models.Delimiter)
		if idx < 0 {
			files = append(files, models.File{
				Key:          obj.Key,
				Size:         obj.Size,
				LastModified: obj.LastModified,
				ETag:         obj.ETag,
			})
			continue
		}

		segment := rest[:idx]
		if segment == "" {
			continue
		}
		prefix := currentPath + segment + models.Delimiter
		folder, seen := folders[segment]
		if !seen {
			folder = &models.Folder{Prefix: prefix}
			folders[segment] = folder
			folderOrder = append(folderOrder, segment)
		}
		if strings.HasSuffix(obj.Key, models.Delimiter) {
			continue
		}
		folder.BlobCount++
		folder.TotalSize += obj.Size
	}

	entries := make([]models.Entry, 0, len(folders)+len(files))
	for _, segment := range folderOrder {
		entries = append(entries, *folders[segment])
	}
	for _, f := range files {
		entries = append(entries, f)
	}
	Sort(entries, ByName)
	return entries
}

// Criterion selects how entries are ordered within the folder and file groups
type Criterion int

const (
	ByName Criterion = iota
	ByModified
	BySize
)

// Criteria lists every criterion in picker order
var Criteria = []Criterion{ByName, ByModified, BySize}

func (c Criterion) String() string {
	switch c {
	case ByModified:
		return "Modified"
	case BySize:
		return "Size"
	default:
		return "Name"
	}
}

// Sort orders entries in place. Folders always precede files. Name order is
// byte-wise; Modified puts the newest file first; Size puts the largest
// first. Ties fall back to name order.
func Sort(entries []models.Entry, by Criterion) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		aFolder, bFolder := models.IsFolder(a), models.IsFolder(b)
		if aFolder != bFolder {
			return aFolder
		}
		switch by {
		case ByModified:
			if af, ok := a.(models.File); ok {
				bf := b.(models.File)
				if !af.LastModified.Equal(bf.LastModified) {
					return af.LastModified.After(bf.LastModified)
				}
			}
		case BySize:
			if sa, sb := sizeOf(a), sizeOf(b); sa != sb {
				return sa > sb
			}
		}
		return a.Name() < b.Name()
	})
}

func sizeOf(e models.Entry) int64 {
	switch v := e.(type) {
	case models.File:
		return v.Size
	case models.Folder:
		return v.TotalSize
	}
	return 0
}
