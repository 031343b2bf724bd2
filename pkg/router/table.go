package router

import (
	"sort"
)

// AnyScene is the scene key for routes that apply in every scene.
const AnyScene = -1

// Key identifies a routing table entry.
type Key struct {
	Scene  int
	Intent string
}

// Table maps (scene, intent) pairs to ordered action templates.
// A Table must not be modified once a session using it has started.
type Table struct {
	entries map[Key][]Template
}

// NewTable creates an empty routing table.
func NewTable() *Table {
	return &Table{entries: make(map[Key][]Template)}
}

// Add registers templates for an intent in a scene, replacing any previous
// entry. Use AnyScene for scene-independent routes.
func (t *Table) Add(scene int, intentName string, templates ...Template) *Table {
	cp := make([]Template, len(templates))
	copy(cp, templates)
	t.entries[Key{Scene: scene, Intent: intentName}] = cp
	return t
}

// AddAll registers the same templates for several intents.
func (t *Table) AddAll(scene int, intents []string, templates ...Template) *Table {
	for _, name := range intents {
		t.Add(scene, name, templates...)
	}
	return t
}

// Lookup returns the templates for (scene, intent), falling back to
// (AnyScene, intent).
func (t *Table) Lookup(scene int, intentName string) ([]Template, bool) {
	if tmpl, ok := t.entries[Key{Scene: scene, Intent: intentName}]; ok {
		return tmpl, true
	}
	tmpl, ok := t.entries[Key{Scene: AnyScene, Intent: intentName}]
	return tmpl, ok
}

// Keys returns all entries sorted by scene, then intent.
func (t *Table) Keys() []Key {
	keys := make([]Key, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Scene != keys[j].Scene {
			return keys[i].Scene < keys[j].Scene
		}
		return keys[i].Intent < keys[j].Intent
	})
	return keys
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entry is one routing table row, for listings.
type Entry struct {
	Scene   int      `json:"scene"`
	Intent  string   `json:"intent"`
	Actions []string `json:"actions"`
}

// Entries lists the table rows in key order.
func (t *Table) Entries() []Entry {
	keys := t.Keys()
	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		templates, _ := t.Lookup(k.Scene, k.Intent)
		e := Entry{Scene: k.Scene, Intent: k.Intent, Actions: make([]string, len(templates))}
		for i, tpl := range templates {
			e.Actions[i] = tpl.String()
		}
		entries = append(entries, e)
	}
	return entries
}
