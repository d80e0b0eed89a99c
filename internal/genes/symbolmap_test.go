package genes

import (
	"reflect"
	"testing"

	"github.com/cognoma/genes/internal/table"
)

func catalogFromInfo(t *testing.T, rows ...geneInfoRow) *table.Table {
	t.Helper()
	catalog, err := BuildGeneCatalog(geneInfoTable(t, rows...))
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return catalog
}

func lookupRows(t *testing.T, m *table.Table) map[[2]string]string {
	t.Helper()
	out := make(map[[2]string]string, m.Len())
	for i := 0; i < m.Len(); i++ {
		key := [2]string{m.Value(i, ColSymbol), m.Value(i, ColChromosome)}
		if _, dup := out[key]; dup {
			t.Fatalf("(symbol, chromosome) pair %v not unique", key)
		}
		out[key] = m.Value(i, ColEntrezGeneID)
	}
	return out
}

func TestBuildSymbolMapApprovedSymbolBeatsSynonym(t *testing.T) {
	catalog := catalogFromInfo(t,
		geneInfoRow{geneID: "1", symbol: "TP53", chromosome: "1", synonyms: "P53"},
		geneInfoRow{geneID: "2", symbol: "P53", chromosome: "1"},
	)
	m, err := BuildSymbolMap(catalog)
	if err != nil {
		t.Fatalf("build symbol map: %v", err)
	}
	rows := lookupRows(t, m)
	if got := rows[[2]string{"P53", "1"}]; got != "2" {
		t.Fatalf("P53/1 resolved to %q, want gene 2 (approved symbol wins)", got)
	}
	if got := rows[[2]string{"TP53", "1"}]; got != "1" {
		t.Fatalf("TP53/1 resolved to %q, want gene 1", got)
	}
}

func TestBuildSymbolMapDropsAmbiguousSynonyms(t *testing.T) {
	catalog := catalogFromInfo(t,
		geneInfoRow{geneID: "1", symbol: "AAA", chromosome: "2", synonyms: "X"},
		geneInfoRow{geneID: "2", symbol: "BBB", chromosome: "2", synonyms: "X"},
	)
	m, err := BuildSymbolMap(catalog)
	if err != nil {
		t.Fatalf("build symbol map: %v", err)
	}
	rows := lookupRows(t, m)
	if _, exists := rows[[2]string{"X", "2"}]; exists {
		t.Fatalf("ambiguous synonym X/2 should have been dropped")
	}
	if rows[[2]string{"AAA", "2"}] != "1" || rows[[2]string{"BBB", "2"}] != "2" {
		t.Fatalf("approved symbols should survive: %v", rows)
	}
}

func TestBuildSymbolMapSameSynonymTwiceIsAmbiguous(t *testing.T) {
	// One gene listing the same synonym twice is indistinguishable from a
	// genuine collision and is dropped the same way.
	catalog := catalogFromInfo(t,
		geneInfoRow{geneID: "1", symbol: "AAA", chromosome: "3", synonyms: "DUP|DUP"},
	)
	m, err := BuildSymbolMap(catalog)
	if err != nil {
		t.Fatalf("build symbol map: %v", err)
	}
	rows := lookupRows(t, m)
	if _, exists := rows[[2]string{"DUP", "3"}]; exists {
		t.Fatalf("self-duplicated synonym should have been dropped")
	}
}

func TestBuildSymbolMapRetainsCombinedChromosomeKey(t *testing.T) {
	catalog := catalogFromInfo(t,
		geneInfoRow{geneID: "7", symbol: "MULTI", chromosome: "X|Y"},
	)
	m, err := BuildSymbolMap(catalog)
	if err != nil {
		t.Fatalf("build symbol map: %v", err)
	}
	rows := lookupRows(t, m)
	for _, chrom := range []string{"X", "Y", "X|Y"} {
		if rows[[2]string{"MULTI", chrom}] != "7" {
			t.Fatalf("MULTI/%s missing or wrong: %v", chrom, rows)
		}
	}
}

func TestBuildSymbolMapSkipsMissingChromosomeAndSynonyms(t *testing.T) {
	catalog := catalogFromInfo(t,
		geneInfoRow{geneID: "1", symbol: "NOCHROM", synonyms: "N1"},
		geneInfoRow{geneID: "2", symbol: "OK", chromosome: "5"},
	)
	m, err := BuildSymbolMap(catalog)
	if err != nil {
		t.Fatalf("build symbol map: %v", err)
	}
	rows := lookupRows(t, m)
	if len(rows) != 1 || rows[[2]string{"OK", "5"}] != "2" {
		t.Fatalf("rows with missing chromosome should be excluded: %v", rows)
	}
}

func TestBuildSymbolMapSortedAndProjected(t *testing.T) {
	catalog := catalogFromInfo(t,
		geneInfoRow{geneID: "2", symbol: "ZZZ", chromosome: "1"},
		geneInfoRow{geneID: "1", symbol: "AAA", chromosome: "2", synonyms: "MMM"},
	)
	m, err := BuildSymbolMap(catalog)
	if err != nil {
		t.Fatalf("build symbol map: %v", err)
	}
	wantColumns := []string{"symbol", "chromosome", "entrez_gene_id"}
	if got := m.Columns(); !reflect.DeepEqual(got, wantColumns) {
		t.Fatalf("columns = %v, want %v", got, wantColumns)
	}
	var symbols []string
	for i := 0; i < m.Len(); i++ {
		symbols = append(symbols, m.Value(i, ColSymbol))
	}
	if !reflect.DeepEqual(symbols, []string{"AAA", "MMM", "ZZZ"}) {
		t.Fatalf("symbols not sorted: %v", symbols)
	}
}

func TestBuildSymbolMapMultipleChromosomesSameGene(t *testing.T) {
	// A single identifier may legitimately appear under several pairs; only
	// pair uniqueness is enforced.
	catalog := catalogFromInfo(t,
		geneInfoRow{geneID: "9", symbol: "SPAN", chromosome: "1|2", synonyms: "S1|S2"},
	)
	m, err := BuildSymbolMap(catalog)
	if err != nil {
		t.Fatalf("build symbol map: %v", err)
	}
	rows := lookupRows(t, m)
	// Approved symbol under 1, 2, and combined key; each synonym under the
	// same three chromosome keys.
	if len(rows) != 9 {
		t.Fatalf("expected 9 rows, got %d: %v", len(rows), rows)
	}
	for key, id := range rows {
		if id != "9" {
			t.Fatalf("pair %v mapped to %q, want 9", key, id)
		}
	}
}
