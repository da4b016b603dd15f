// Package sequencer derives the active step list from the user's category
// selections. It is a pure function of the catalog and the two selection
// sets; selection order and duplicates never affect the result.
package sequencer

import "github.com/kingrea/selfassess/internal/step"

// Sequence returns the lead steps, then selected income detail steps in
// canonical order, then selected relief detail steps in canonical order, then
// the tail steps. Unknown tokens are ignored.
func Sequence(catalog *step.Catalog, income, relief []string) []step.Definition {
	out := append([]step.Definition(nil), catalog.Lead()...)
	out = appendSelected(out, catalog.Optional(step.CategoryIncome), income)
	out = appendSelected(out, catalog.Optional(step.CategoryRelief), relief)
	return append(out, catalog.Tail()...)
}

// IDs flattens a step list to its identifiers.
func IDs(defs []step.Definition) []string {
	ids := make([]string, len(defs))
	for i, def := range defs {
		ids[i] = def.ID
	}
	return ids
}

// Unknown returns the tokens of a category that the catalog does not know,
// in input order without duplicates.
func Unknown(catalog *step.Catalog, category step.Category, tokens []string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, token := range tokens {
		if _, ok := catalog.ByToken(category, token); ok {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

// IndexOf returns the position of id in defs, or -1.
func IndexOf(defs []step.Definition, id string) int {
	for i, def := range defs {
		if def.ID == id {
			return i
		}
	}
	return -1
}

func appendSelected(out, ordered []step.Definition, selected []string) []step.Definition {
	if len(selected) == 0 {
		return out
	}
	picked := make(map[string]struct{}, len(selected))
	for _, token := range selected {
		picked[token] = struct{}{}
	}
	for _, def := range ordered {
		if _, ok := picked[def.Token]; ok {
			out = append(out, def)
		}
	}
	return out
}
