package genes

import (
	"fmt"
	"strconv"

	"github.com/cognoma/genes/internal/table"
	"github.com/cognoma/genes/pkg/domain"
)

// CatalogRecords converts the gene catalog table into typed records.
func CatalogRecords(t *table.Table) ([]domain.GeneRecord, error) {
	records := make([]domain.GeneRecord, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		id, err := atoiCell(t, i, ColEntrezGeneID)
		if err != nil {
			return nil, err
		}
		records = append(records, domain.GeneRecord{
			EntrezGeneID: id,
			Symbol:       t.Value(i, ColSymbol),
			Description:  t.Value(i, ColDescription),
			Chromosome:   t.Value(i, ColChromosome),
			GeneType:     t.Value(i, ColGeneType),
			Synonyms:     t.Value(i, ColSynonyms),
			Aliases:      t.Value(i, ColAliases),
		})
	}
	return records, nil
}

// HistoryRecords converts the history map table into typed records.
func HistoryRecords(t *table.Table) ([]domain.HistoryRecord, error) {
	records := make([]domain.HistoryRecord, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		oldID, err := atoiCell(t, i, ColOldEntrezGeneID)
		if err != nil {
			return nil, err
		}
		newID, err := atoiCell(t, i, ColNewEntrezGeneID)
		if err != nil {
			return nil, err
		}
		records = append(records, domain.HistoryRecord{
			OldEntrezGeneID: oldID,
			NewEntrezGeneID: newID,
			Date:            t.Value(i, ColDate),
		})
	}
	return records, nil
}

// SymbolEntries converts the symbol lookup table into typed entries.
func SymbolEntries(t *table.Table) ([]domain.SymbolLookupEntry, error) {
	entries := make([]domain.SymbolLookupEntry, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		id, err := atoiCell(t, i, ColEntrezGeneID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, domain.SymbolLookupEntry{
			Symbol:       t.Value(i, ColSymbol),
			Chromosome:   t.Value(i, ColChromosome),
			EntrezGeneID: id,
		})
	}
	return entries, nil
}

// XrefRecords converts the cross-reference table into typed records.
func XrefRecords(t *table.Table) ([]domain.XrefRecord, error) {
	records := make([]domain.XrefRecord, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		id, err := atoiCell(t, i, ColEntrezGeneID)
		if err != nil {
			return nil, err
		}
		records = append(records, domain.XrefRecord{
			EntrezGeneID: id,
			Resource:     t.Value(i, ColResource),
			Identifier:   t.Value(i, ColIdentifier),
		})
	}
	return records, nil
}

func atoiCell(t *table.Table, row int, column string) (int, error) {
	v := t.Value(row, column)
	id, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("row %d: non-numeric %s value %q", row, column, v)
	}
	return id, nil
}
