package core

import "sort"

// AggregateRate is the total demand for one ingredient across an expansion.
type AggregateRate struct {
	Ingredient Ingredient `json:"ingredient"`
	Producers  float64    `json:"producers"`
	Rate       float64    `json:"rate"`
}

type aggregateEntry struct {
	producers float64
	rate      float64
	lastVisit uint64
}

// AggregateRates performs the same expansion as ExpandTree but merges every
// occurrence of an ingredient into one total. Visits are numbered in
// depth-first, input-order pre-order starting at zero for target; a revisit
// adds to the totals and moves the entry to its latest visit number. The
// result is ordered by that last visit number.
func AggregateRates(view CatalogView, target Ingredient, rate float64) ([]AggregateRate, error) {
	if err := checkRate(rate); err != nil {
		return nil, err
	}
	type frame struct {
		ing   Ingredient
		rate  float64
		depth int
	}
	maxDepth := view.RecipeCount()
	totals := make(map[Ingredient]*aggregateEntry)
	var visit uint64

	stack := []frame{{ing: target, rate: rate}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > maxDepth {
			return nil, cycleAt(f.ing)
		}
		step, err := requiredRates(view, f.ing, f.rate)
		if err != nil {
			return nil, err
		}
		if entry, ok := totals[f.ing]; ok {
			entry.producers += step.Producers
			entry.rate += f.rate
			entry.lastVisit = visit
		} else {
			totals[f.ing] = &aggregateEntry{producers: step.Producers, rate: f.rate, lastVisit: visit}
		}
		visit++
		for i := len(step.Inputs) - 1; i >= 0; i-- {
			in := step.Inputs[i]
			stack = append(stack, frame{ing: in.Ingredient, rate: in.Rate, depth: f.depth + 1})
		}
	}

	type ordered struct {
		visit uint64
		rate  AggregateRate
	}
	rows := make([]ordered, 0, len(totals))
	for ing, entry := range totals {
		rows = append(rows, ordered{
			visit: entry.lastVisit,
			rate:  AggregateRate{Ingredient: ing, Producers: entry.producers, Rate: entry.rate},
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].visit < rows[j].visit })
	out := make([]AggregateRate, len(rows))
	for i, row := range rows {
		out[i] = row.rate
	}
	return out, nil
}
