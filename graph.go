package djconf

import (
	"fmt"
	"slices"
	"strings"
)

// order sorts entries so every proxy follows the entries it reads.
// Ready entries are taken in table position, so a table that already
// declares dependencies first keeps its order exactly.
func order(entries []Entry) ([]Entry, error) {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path()
	}

	deps := make([][]int, len(entries))
	for i, e := range entries {
		p, ok := e.Proxy()
		if !ok {
			continue
		}
		for _, d := range p.Deps {
			for _, j := range dependencyTargets(paths, d) {
				if j != i && !slices.Contains(deps[i], j) {
					deps[i] = append(deps[i], j)
				}
			}
		}
	}

	done := make([]bool, len(entries))
	out := make([]Entry, 0, len(entries))
	for len(out) < len(entries) {
		next := -1
		for i := range entries {
			if done[i] {
				continue
			}
			ready := true
			for _, j := range deps[i] {
				if !done[j] {
					ready = false
					break
				}
			}
			if ready {
				next = i
				break
			}
		}
		if next < 0 {
			var stuck []string
			for i, e := range entries {
				if !done[i] {
					stuck = append(stuck, e.Key)
				}
			}
			return nil, &Error{
				Setting: stuck[0],
				Err:     fmt.Errorf("%w among %s", ErrDependencyCycle, strings.Join(stuck, ", ")),
			}
		}
		done[next] = true
		out = append(out, entries[next])
	}
	return out, nil
}

// dependencyTargets maps a dependency path to entry indexes: the entry
// whose path is the longest prefix of dep, or else every entry inside the
// group dep names. Unknown paths yield nothing and fail at evaluation.
func dependencyTargets(paths []string, dep string) []int {
	best := -1
	for i, p := range paths {
		if dep == p || strings.HasPrefix(dep, p+".") {
			if best < 0 || len(p) > len(paths[best]) {
				best = i
			}
		}
	}
	if best >= 0 {
		return []int{best}
	}
	var group []int
	for i, p := range paths {
		if strings.HasPrefix(p, dep+".") {
			group = append(group, i)
		}
	}
	return group
}
