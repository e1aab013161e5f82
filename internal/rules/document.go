package rules

import (
	"encoding/json"
	"path/filepath"
	"strings"
)

// Settings holds the pipeline feature toggles and model choices.
type Settings struct {
	RemoveDuplicate bool   `json:"remove_duplicate"`
	RenameByAI      bool   `json:"rename_by_ai"`
	RenameModel     string `json:"rename_ai"`
	OCRModel        string `json:"ocr_ai"`
}

// Move holds the provenance pattern tables. Keys are patterns (literal
// substrings or `{$var}`/`{$*}` templates), values are destination
// directories. The URL and tag tables are independent namespaces.
type Move struct {
	URL map[string]string `json:"url"`
	Tag map[string]string `json:"tag"`
}

// Schema holds the routing schema: the move tables and the list of
// AI-rename-eligible folders.
type Schema struct {
	Move   Move     `json:"move"`
	Rename []string `json:"rename"`
}

// Document is the full routing configuration. Treat instances obtained
// from a Store as read-only.
type Document struct {
	Settings  Settings `json:"settings"`
	Watchlist []string `json:"watchlist"`
	Schema    Schema   `json:"schema"`
}

// Default returns a Document populated with repository defaults: empty
// tables and both pipeline features enabled.
func Default() Document {
	return Document{
		Settings: Settings{
			RemoveDuplicate: true,
			RenameByAI:      true,
			RenameModel:     "gemma3:4b",
			OCRModel:        "deepocr",
		},
		Watchlist: []string{},
		Schema: Schema{
			Move:   Move{URL: map[string]string{}, Tag: map[string]string{}},
			Rename: []string{},
		},
	}
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	cp := d
	cp.Watchlist = append([]string(nil), d.Watchlist...)
	cp.Schema.Rename = append([]string(nil), d.Schema.Rename...)
	cp.Schema.Move.URL = cloneTable(d.Schema.Move.URL)
	cp.Schema.Move.Tag = cloneTable(d.Schema.Move.Tag)
	return cp
}

type documentUpdate struct {
	Settings  json.RawMessage `json:"settings"`
	Watchlist *[]string       `json:"watchlist"`
	Schema    *schemaUpdate   `json:"schema"`
}

type schemaUpdate struct {
	Move   *Move     `json:"move"`
	Rename *[]string `json:"rename"`
}

// Merge applies a JSON-encoded partial update over the document and
// returns the result. Absent sections keep their current values.
// Settings merge field by field; the watchlist, the move tables, and
// the rename list replace wholesale when their key is present, so a
// rule omitted from a supplied table is deleted.
func (d Document) Merge(payload []byte) (Document, error) {
	merged := d.Clone()
	var update documentUpdate
	if err := json.Unmarshal(payload, &update); err != nil {
		return Document{}, err
	}
	if len(update.Settings) > 0 {
		if err := json.Unmarshal(update.Settings, &merged.Settings); err != nil {
			return Document{}, err
		}
	}
	if update.Watchlist != nil {
		merged.Watchlist = *update.Watchlist
	}
	if update.Schema != nil {
		if update.Schema.Move != nil {
			merged.Schema.Move = *update.Schema.Move
		}
		if update.Schema.Rename != nil {
			merged.Schema.Rename = *update.Schema.Rename
		}
	}
	return merged, nil
}

// RenameEligible reports whether dir falls under one of the configured
// AI-rename folders.
func (d Document) RenameEligible(dir string) bool {
	dir = filepath.Clean(dir)
	for _, root := range d.Schema.Rename {
		root = filepath.Clean(root)
		if dir == root || strings.HasPrefix(dir+string(filepath.Separator), root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func cloneTable(table map[string]string) map[string]string {
	cp := make(map[string]string, len(table))
	for k, v := range table {
		cp[k] = v
	}
	return cp
}
