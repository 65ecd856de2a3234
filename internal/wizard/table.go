package wizard

import (
	"errors"
	"fmt"
	"sort"

	dErrors "ivory/pkg/domain-errors"
)

// Table is the transition table of the journey: every step and where each of
// its discriminators leads.
type Table map[StepID]Routes

// NewTable builds the table from registered steps. Duplicate IDs are an error.
func NewTable(steps []Step) (Table, error) {
	t := make(Table, len(steps))
	for _, s := range steps {
		if _, dup := t[s.ID()]; dup {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("step %s registered twice", s.ID()))
		}
		t[s.ID()] = s.Routes()
	}
	return t, nil
}

// Validate checks every route targets a registered step.
func (t Table) Validate() error {
	var errs []error
	for _, from := range t.Steps() {
		for route, to := range t[from] {
			if _, ok := t[to]; !ok {
				errs = append(errs, fmt.Errorf("%s[%q] -> unknown step %s", from, route, to))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "invalid transition table")
	}
	return nil
}

// Next looks up the step a route leads to.
func (t Table) Next(from StepID, route string) (StepID, bool) {
	to, ok := t[from][route]
	return to, ok
}

// Steps lists the step IDs in a stable order.
func (t Table) Steps() []StepID {
	out := make([]StepID, 0, len(t))
	for id := range t {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Reachable lists every step reachable from root, root included.
func (t Table) Reachable(root StepID) map[StepID]bool {
	seen := map[StepID]bool{root: true}
	queue := []StepID{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, to := range t[cur] {
			if !seen[to] {
				seen[to] = true
				queue = append(queue, to)
			}
		}
	}
	return seen
}

// Cycle returns a cycle if the table has one. The journey is a DAG apart
// from list pages that lead back to their upload page.
func (t Table) Cycle(allowed func(from, to StepID) bool) []StepID {
	const (
		white = iota
		grey
		black
	)
	color := make(map[StepID]int, len(t))
	var stack []StepID
	var found []StepID

	var visit func(StepID) bool
	visit = func(n StepID) bool {
		color[n] = grey
		stack = append(stack, n)
		targets := make([]string, 0, len(t[n]))
		for r := range t[n] {
			targets = append(targets, r)
		}
		sort.Strings(targets)
		for _, r := range targets {
			to := t[n][r]
			if allowed != nil && allowed(n, to) {
				continue
			}
			switch color[to] {
			case grey:
				found = append(append([]StepID(nil), stack...), to)
				return true
			case white:
				if visit(to) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
		return false
	}
	for _, n := range t.Steps() {
		if color[n] == white && visit(n) {
			return found
		}
	}
	return nil
}
