package domain

// WouldCreateCycle reports whether making candidate an input of output's
// recipe would close a cycle: candidate is output itself, or output is
// reachable from candidate through committed recipe inputs. The walk keeps a
// visited set, so it terminates even on a catalog that already holds a cycle.
func (c *Catalog) WouldCreateCycle(output, candidate Ingredient) bool {
	if candidate == output {
		return true
	}
	if c == nil {
		return false
	}
	visited := map[Ingredient]struct{}{candidate: {}}
	stack := []Ingredient{candidate}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		recipe, ok := c.Recipes[cur]
		if !ok {
			continue
		}
		for _, in := range recipe.Inputs {
			if in.Ingredient == output {
				return true
			}
			if _, seen := visited[in.Ingredient]; seen {
				continue
			}
			visited[in.Ingredient] = struct{}{}
			stack = append(stack, in.Ingredient)
		}
	}
	return false
}

// FindCycle returns one cycle in the recipe graph as a path that starts and
// ends with the same ingredient, or nil when the graph is acyclic. Outputs and
// inputs are visited in a fixed order so the witness is deterministic.
func (c *Catalog) FindCycle() []Ingredient {
	if c == nil || len(c.Recipes) == 0 {
		return nil
	}
	const (
		white = iota
		gray
		black
	)
	color := make(map[Ingredient]int, len(c.Recipes))
	parent := make(map[Ingredient]Ingredient, len(c.Recipes))

	type frame struct {
		ing  Ingredient
		next int
	}

	for _, root := range c.SortedRecipeOutputs() {
		if color[root] != white {
			continue
		}
		color[root] = gray
		stack := []frame{{ing: root}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			inputs := c.Recipes[top.ing].Inputs
			if top.next >= len(inputs) {
				color[top.ing] = black
				stack = stack[:len(stack)-1]
				continue
			}
			child := inputs[top.next].Ingredient
			top.next++
			switch color[child] {
			case white:
				color[child] = gray
				parent[child] = top.ing
				stack = append(stack, frame{ing: child})
			case gray:
				return cyclePath(parent, top.ing, child)
			}
		}
	}
	return nil
}

// cyclePath rebuilds the back edge from -> to as a forward path to ... from -> to.
func cyclePath(parent map[Ingredient]Ingredient, from, to Ingredient) []Ingredient {
	rev := []Ingredient{to, from}
	for cur := from; cur != to; {
		cur = parent[cur]
		rev = append(rev, cur)
	}
	out := make([]Ingredient, len(rev))
	for i := range rev {
		out[i] = rev[len(rev)-1-i]
	}
	return out
}
