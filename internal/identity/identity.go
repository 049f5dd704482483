// Package identity resolves which local task a remote task refers to.
//
// Tasks are matched by stable identifier first. Records written before
// stable identifiers existed, or created twice on different devices, are
// matched by fingerprint: the date, the trimmed text and the creation instant.
package identity

import (
	"strings"

	"github.com/google/uuid"

	"github.com/sandeepkv93/daylog/internal/model"
)

// NewStableID returns a random identifier for a new record.
func NewStableID() string {
	return uuid.NewString()
}

// Fingerprint is the content key of a task.
func Fingerprint(t model.Task) string {
	return t.Date + "__" + strings.TrimSpace(t.Text) + "__" + model.FormatTimestamp(t.CreatedAt)
}

// Index maps stable ids and fingerprints to local tasks. When two local
// tasks share a key the more recently modified one is kept.
type Index struct {
	byID          map[string]model.Task
	byFingerprint map[string]model.Task
}

func NewIndex(tasks []model.Task) *Index {
	idx := &Index{
		byID:          make(map[string]model.Task, len(tasks)),
		byFingerprint: make(map[string]model.Task, len(tasks)),
	}
	for _, t := range tasks {
		idx.add(t, false)
	}
	return idx
}

// Resolve returns the local task for remote, matching by stable id and then
// by fingerprint.
func (i *Index) Resolve(remote model.Task) (model.Task, bool) {
	if remote.UUID != "" {
		if t, ok := i.byID[remote.UUID]; ok {
			return t, true
		}
	}
	t, ok := i.byFingerprint[Fingerprint(remote)]
	return t, ok
}

// Put records t, replacing any entry under the same keys.
func (i *Index) Put(t model.Task) {
	i.add(t, true)
}

// Len is the number of distinct fingerprints indexed.
func (i *Index) Len() int {
	return len(i.byFingerprint)
}

func (i *Index) add(t model.Task, overwrite bool) {
	if t.UUID != "" {
		if cur, ok := i.byID[t.UUID]; overwrite || !ok || newer(t, cur) {
			i.byID[t.UUID] = t
		}
	}
	fp := Fingerprint(t)
	if cur, ok := i.byFingerprint[fp]; overwrite || !ok || newer(t, cur) {
		i.byFingerprint[fp] = t
	}
}

func newer(a, b model.Task) bool {
	return model.Millis(a.UpdatedAt) > model.Millis(b.UpdatedAt)
}
