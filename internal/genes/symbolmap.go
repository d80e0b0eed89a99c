package genes

import (
	"github.com/cognoma/genes/internal/table"
)

// BuildSymbolMap builds the disambiguated (symbol, chromosome) to Entrez
// identifier lookup table from the gene catalog. It resolves genes
// referenced only by symbol when the chromosome is also known: approved
// symbols always map, and synonyms map unless they are ambiguous within a
// chromosome.
//
// Chromosome fields are split with the combined value retained, so a gene
// on "X|Y" is reachable under "X", "Y", and the literal "X|Y" key as it
// appears in source data. Synonym fields are always fully exploded; the
// combined synonym string is never a key.
func BuildSymbolMap(catalog *table.Table) (*table.Table, error) {
	// Primary candidates: each gene's approved symbol.
	primary, err := catalog.Select(
		table.Col(ColEntrezGeneID),
		table.Col(ColChromosome),
		table.Col(ColSymbol),
	)
	if err != nil {
		return nil, err
	}
	primary, err = table.Split(primary, ColChromosome, FieldSeparator, true)
	if err != nil {
		return nil, err
	}

	// Synonym candidates: every synonym as a candidate symbol. A
	// (chromosome, symbol) pair occurring on more than one synonym row is
	// ambiguous and all of its rows are dropped, including artificial
	// duplicates where one gene lists the same synonym twice; the source
	// does not distinguish those from genuine collisions.
	synonyms, err := catalog.Select(
		table.Col(ColEntrezGeneID),
		table.Col(ColChromosome),
		table.Renamed(ColSynonyms, ColSymbol),
	)
	if err != nil {
		return nil, err
	}
	synonyms, err = table.Split(synonyms, ColSymbol, FieldSeparator, false)
	if err != nil {
		return nil, err
	}
	synonyms, err = table.Split(synonyms, ColChromosome, FieldSeparator, true)
	if err != nil {
		return nil, err
	}
	synonyms, err = synonyms.DropDuplicates([]string{ColChromosome, ColSymbol}, table.KeepNone)
	if err != nil {
		return nil, err
	}

	// Merge primary-first so an approved symbol beats a synonym colliding
	// with it on the same chromosome, then keep the first occurrence per
	// (chromosome, symbol) pair.
	merged, err := primary.Append(synonyms)
	if err != nil {
		return nil, err
	}
	merged, err = merged.DropDuplicates([]string{ColChromosome, ColSymbol}, table.KeepFirst)
	if err != nil {
		return nil, err
	}

	out, err := merged.Select(
		table.Col(ColSymbol),
		table.Col(ColChromosome),
		table.Col(ColEntrezGeneID),
	)
	if err != nil {
		return nil, err
	}
	return out.SortLex(ColSymbol, ColChromosome)
}
