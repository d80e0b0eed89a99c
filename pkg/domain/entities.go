// Package domain defines the derived gene entities and the persistence
// contract shared by the genes pipeline and its storage backends.
package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// TargetTaxonID is the NCBI taxonomy identifier the pipeline is filtered to.
// The source files interleave several taxa (Neanderthals et al.); only rows
// carrying this taxon enter the derived tables.
const TargetTaxonID = 9606

// GeneRecord is one row of the normalized gene catalog. EntrezGeneID is the
// canonical key; Chromosome may hold a pipe-delimited multi-value field
// (e.g. "1|2" for genes placed on several assemblies) and Synonyms a
// pipe-delimited list of alternate symbols. Missing values are empty strings.
type GeneRecord struct {
	EntrezGeneID int    `json:"entrez_gene_id"`
	Symbol       string `json:"symbol"`
	Description  string `json:"description"`
	Chromosome   string `json:"chromosome"`
	GeneType     string `json:"gene_type"`
	Synonyms     string `json:"synonyms"`
	Aliases      string `json:"aliases"`
}

// HistoryRecord maps a discontinued Entrez identifier to its replacement.
type HistoryRecord struct {
	OldEntrezGeneID int    `json:"old_entrez_gene_id"`
	NewEntrezGeneID int    `json:"new_entrez_gene_id"`
	Date            string `json:"date"`
}

// SymbolLookupEntry resolves a (symbol, chromosome) pair to an Entrez
// identifier. The pair is unique across the lookup table; a single
// identifier may appear under several pairs.
type SymbolLookupEntry struct {
	Symbol       string `json:"symbol"`
	Chromosome   string `json:"chromosome"`
	EntrezGeneID int    `json:"entrez_gene_id"`
}

// XrefRecord links an Entrez identifier to an identifier in another
// resource, extracted from the dbXrefs field of the gene info file.
type XrefRecord struct {
	EntrezGeneID int    `json:"entrez_gene_id"`
	Resource     string `json:"resource"`
	Identifier   string `json:"identifier"`
}

// Snapshot is the full derived state of one pipeline run. It is written to
// persistent stores atomically; partial snapshots are never stored.
type Snapshot struct {
	Genes     []GeneRecord        `json:"genes"`
	History   []HistoryRecord     `json:"history"`
	SymbolMap []SymbolLookupEntry `json:"symbol_map"`
	Xrefs     []XrefRecord        `json:"xrefs"`
}

// FileVersion records the source-side modification timestamp of one
// retrieved file, keyed by its path on the NCBI host.
type FileVersion struct {
	Path     string
	Modified time.Time
}

// Versions captures when the source files were retrieved and how fresh they
// were at the source. Serialized with "retrieved" first and files in
// request order, matching the layout consumers of versions.json expect.
type Versions struct {
	Retrieved time.Time
	Files     []FileVersion
}

// MarshalJSON renders the versions object as a flat JSON object whose first
// key is "retrieved" followed by one key per file path.
func (v Versions) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	appendEntry := func(key, value string, first bool) {
		if !first {
			buf = append(buf, ',')
		}
		k, _ := json.Marshal(key)
		val, _ := json.Marshal(value)
		buf = append(buf, k...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	appendEntry("retrieved", v.Retrieved.UTC().Format(time.RFC3339), true)
	for _, f := range v.Files {
		appendEntry(f.Path, f.Modified.UTC().Format(time.RFC3339), false)
	}
	buf = append(buf, '}')
	return buf, nil
}

// UnmarshalJSON restores a versions object from the flat layout produced by
// MarshalJSON. File key order in the source document is not preserved by
// encoding/json maps, so files are restored sorted by path.
func (v *Versions) UnmarshalJSON(data []byte) error {
	raw := map[string]string{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	retrieved, ok := raw["retrieved"]
	if !ok {
		return fmt.Errorf("versions: missing retrieved timestamp")
	}
	ts, err := time.Parse(time.RFC3339, retrieved)
	if err != nil {
		return fmt.Errorf("versions: parse retrieved: %w", err)
	}
	v.Retrieved = ts
	delete(raw, "retrieved")
	v.Files = v.Files[:0]
	for _, path := range sortedKeys(raw) {
		modified, err := time.Parse(time.RFC3339, raw[path])
		if err != nil {
			return fmt.Errorf("versions: parse %s: %w", path, err)
		}
		v.Files = append(v.Files, FileVersion{Path: path, Modified: modified})
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
