package resolver

import (
	"cmp"
	"context"
	"slices"

	"github.com/dukex/botflow/pkg/models"
	"github.com/dukex/botflow/pkg/template"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Suggestion is one reference a user can insert into an input.
type Suggestion struct {
	Label    string        `json:"label"`
	Value    string        `json:"value"`
	Kind     template.Kind `json:"kind"`
	NodeID   string        `json:"node_id,omitempty"`
	Output   string        `json:"output,omitempty"`
	Distance int           `json:"distance"`
}

// Suggest lists the references available to nodeID ranked against query. Candidates are the
// outputs of every ancestor followed by the fixed runtime fields; an empty query returns them all
// in that order.
func (r *Resolver) Suggest(ctx context.Context, workflow *models.Workflow, nodeID, query string) ([]Suggestion, error) {
	ancestors, err := r.Ancestors(ctx, workflow, nodeID)
	if err != nil {
		return nil, err
	}

	var candidates []Suggestion

	for _, ancestor := range ancestors {
		for _, out := range ancestor.Outputs {
			candidates = append(candidates, Suggestion{
				Label:  ancestor.Label + "." + out.Name,
				Value:  out.Reference,
				Kind:   template.KindNodeReference,
				NodeID: ancestor.NodeID,
				Output: out.Name,
			})
		}
	}

	for _, field := range template.RuntimeFields() {
		value, _ := template.BuildRuntimeField(field)

		candidates = append(candidates, Suggestion{
			Label: "runtime." + field,
			Value: value,
			Kind:  template.KindRuntimeField,
		})
	}

	if query == "" {
		return candidates, nil
	}

	keys := make([]string, len(candidates))
	for i, c := range candidates {
		keys[i] = c.Label
	}

	ranks := fuzzy.RankFindFold(query, keys)
	slices.SortStableFunc(ranks, func(a, b fuzzy.Rank) int {
		return cmp.Or(cmp.Compare(a.Distance, b.Distance), cmp.Compare(a.OriginalIndex, b.OriginalIndex))
	})

	suggestions := make([]Suggestion, 0, len(ranks))

	for _, rank := range ranks {
		s := candidates[rank.OriginalIndex]
		s.Distance = rank.Distance
		suggestions = append(suggestions, s)
	}

	return suggestions, nil
}
