// Package search holds the typed query state and the filtered view
// computed from an authoritative list.
package search

import "strings"

// State is one of Inactive, Containers or Files
type State interface {
	isState()
}

// Inactive means no search is in progress
type Inactive struct{}

// Containers searches the container list
type Containers struct {
	Query string
	// Cursor indexes the filtered view
	Cursor int
}

// Files searches the entries of the current level
type Files struct {
	Query  string
	Cursor int
}

func (Inactive) isState()   {}
func (Containers) isState() {}
func (Files) isState()      {}

// Query returns the query of an active search
func Query(s State) (string, bool) {
	switch v := s.(type) {
	case Containers:
		return v.Query, true
	case Files:
		return v.Query, true
	}
	return "", false
}

// Cursor returns the highlighted row of the filtered view
func Cursor(s State) int {
	switch v := s.(type) {
	case Containers:
		return v.Cursor
	case Files:
		return v.Cursor
	}
	return 0
}

// WithQuery returns s with a new query and the cursor reset
func WithQuery(s State, query string) State {
	switch s.(type) {
	case Containers:
		return Containers{Query: query}
	case Files:
		return Files{Query: query}
	}
	return s
}

// WithCursor returns s with the cursor moved to i
func WithCursor(s State, i int) State {
	switch v := s.(type) {
	case Containers:
		v.Cursor = i
		return v
	case Files:
		v.Cursor = i
		return v
	}
	return s
}

// Matches reports whether name contains query, ignoring case
func Matches(name, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}

// Indices returns the positions in names that pass the filter of s, in order
func Indices(names []string, s State) []int {
	query, _ := Query(s)
	out := make([]int, 0, len(names))
	for i, name := range names {
		if Matches(name, query) {
			out = append(out, i)
		}
	}
	return out
}

// Filter returns the items whose name passes the filter of s, preserving
// their relative order. With an Inactive state items is returned as is.
func Filter[T any](items []T, name func(T) string, s State) []T {
	query, active := Query(s)
	if !active || query == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if Matches(name(item), query) {
			out = append(out, item)
		}
	}
	return out
}
