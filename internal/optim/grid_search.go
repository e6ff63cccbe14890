package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/pendulab/internal/objective"
)

// GridSearch evaluates every combination of per-parameter candidates,
// ordered like the objective's parameter names. It is a coarse way to pick
// a starting point for Minimize.
type GridSearch struct {
	ranges [][]float64
}

func NewGridSearch(ranges [][]float64) *GridSearch {
	return &GridSearch{ranges: ranges}
}

func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

func (g *GridSearch) Search(ctx context.Context, obj *objective.Objective) ([]float64, float64, error) {
	if len(g.ranges) != len(obj.Binding.ParamNames) {
		return nil, 0, fmt.Errorf("grid has %d axes for %d parameters", len(g.ranges), len(obj.Binding.ParamNames))
	}
	if err := obj.Validate(); err != nil {
		return nil, 0, err
	}

	best := math.Inf(1)
	var bestValues []float64

	err := g.searchRecursive(ctx, 0, make([]float64, len(g.ranges)), obj, &best, &bestValues)
	if err != nil {
		return nil, 0, err
	}
	if bestValues == nil {
		return nil, 0, fmt.Errorf("empty grid")
	}

	return bestValues, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current []float64,
	obj *objective.Objective,
	best *float64,
	bestValues *[]float64,
) error {
	if depth == len(g.ranges) {
		if err := ctx.Err(); err != nil {
			return err
		}

		val, err := obj.Evaluate(ctx, current)
		if err != nil {
			return err
		}

		if val < *best {
			*best = val
			*bestValues = append([]float64(nil), current...)
		}
		return nil
	}

	for _, val := range g.ranges[depth] {
		current[depth] = val
		if err := g.searchRecursive(ctx, depth+1, current, obj, best, bestValues); err != nil {
			return err
		}
	}
	return nil
}
