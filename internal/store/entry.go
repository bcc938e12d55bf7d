package store

import (
	"sort"
	"strconv"
	"strings"
)

const frameExt = ".txt"

// Entry locates one text frame in the store.
type Entry struct {
	Bucket uint64
	Frame  uint64
	Path   string
}

// Sequence is a list of entries in playback order.
type Sequence []Entry

// Paths returns the entry paths in order.
func (s Sequence) Paths() []string {
	paths := make([]string, len(s))
	for i, e := range s {
		paths[i] = e.Path
	}
	return paths
}

// Buckets returns the number of distinct buckets in the sequence.
func (s Sequence) Buckets() int {
	count := 0
	for i, e := range s {
		if i == 0 || e.Bucket != s[i-1].Bucket {
			count++
		}
	}
	return count
}

// Index maps bucket numbers to their entries.
type Index struct {
	buckets map[uint64][]Entry
	size    int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{buckets: make(map[uint64][]Entry)}
}

// Add records e. Duplicate (bucket, frame) pairs are kept; Flatten orders
// them by path.
func (ix *Index) Add(e Entry) {
	ix.buckets[e.Bucket] = append(ix.buckets[e.Bucket], e)
	ix.size++
}

// Len returns the number of entries.
func (ix *Index) Len() int { return ix.size }

// Buckets returns the non-empty bucket numbers in ascending order.
func (ix *Index) Buckets() []uint64 {
	keys := make([]uint64, 0, len(ix.buckets))
	for k, entries := range ix.buckets {
		if len(entries) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Entries returns the entries of bucket ordered by frame number.
func (ix *Index) Entries(bucket uint64) []Entry {
	entries := append([]Entry(nil), ix.buckets[bucket]...)
	sortEntries(entries)
	return entries
}

// Flatten returns every entry ordered by bucket, then frame, then path.
func (ix *Index) Flatten() Sequence {
	seq := make(Sequence, 0, ix.size)
	for _, bucket := range ix.Buckets() {
		seq = append(seq, ix.Entries(bucket)...)
	}
	return seq
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Frame != entries[j].Frame {
			return entries[i].Frame < entries[j].Frame
		}
		return entries[i].Path < entries[j].Path
	})
}

// parseNumber accepts non-empty runs of ASCII digits that fit in a uint64.
func parseNumber(value string) (uint64, bool) {
	if value == "" {
		return 0, false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// frameNumber extracts the frame number from a file name. isFrame reports
// whether the name has the frame extension at all.
func frameNumber(name string) (number uint64, isFrame bool, ok bool) {
	stem, found := strings.CutSuffix(name, frameExt)
	if !found {
		return 0, false, false
	}
	n, ok := parseNumber(stem)
	return n, true, ok
}
