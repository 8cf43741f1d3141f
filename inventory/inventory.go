// Package inventory holds the room inventory merge and comparison logic.
// All functions here are pure; persistence and AI calls live elsewhere.
package inventory

import (
	"sort"
	"strings"
)

// ObjectEntry is one recognized object type and how many instances were seen.
type ObjectEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Inventory is an ordered list of ObjectEntry, unique by normalized name.
type Inventory []ObjectEntry

// NormalizeKey derives the matching key for an object name.
// Keys are for equality only and are never displayed.
func NormalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Merge combines an existing inventory with a freshly observed object list
// into a new inventory. Counts for the same key accumulate across passes,
// the first-seen display name wins (existing before incoming), and the
// result is sorted alphabetically by normalized key so repeated merges are
// deterministic. Inputs are not modified.
func Merge(existing Inventory, incoming []ObjectEntry) Inventory {
	counts := make(map[string]int)
	names := make(map[string]string)
	keys := make([]string, 0, len(existing)+len(incoming))

	for _, entry := range existing {
		key := NormalizeKey(entry.Name)
		if _, ok := counts[key]; !ok {
			names[key] = entry.Name
			keys = append(keys, key)
		}
		counts[key] += entry.Count
	}
	for _, entry := range incoming {
		key := NormalizeKey(entry.Name)
		if _, ok := counts[key]; !ok {
			names[key] = entry.Name
			keys = append(keys, key)
		}
		counts[key] += entry.Count
	}

	sort.Strings(keys)

	merged := make(Inventory, 0, len(keys))
	for _, key := range keys {
		merged = append(merged, ObjectEntry{
			Name:  names[key],
			Count: counts[key],
		})
	}
	return merged
}

// Find returns the entry matching name's normalized key, if present.
func (inv Inventory) Find(name string) (ObjectEntry, bool) {
	key := NormalizeKey(name)
	for _, entry := range inv {
		if NormalizeKey(entry.Name) == key {
			return entry, true
		}
	}
	return ObjectEntry{}, false
}

// TotalCount sums the counts of all entries.
func (inv Inventory) TotalCount() int {
	total := 0
	for _, entry := range inv {
		total += entry.Count
	}
	return total
}
