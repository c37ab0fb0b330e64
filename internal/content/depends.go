package content

import (
	"fmt"
	"sort"
)

// SectionDeps declares which sibling sections a section's code logically
// depends on.
type SectionDeps struct {
	ID        string
	DependsOn []string
}

// ValidateDependencies checks the declared dependsOn metadata of a chapter's
// sections: every referenced id must exist in the sibling set, no section may
// depend on itself, and the graph must be acyclic. On success it returns the
// section ids in a deterministic topological order (ties broken by input
// position) so a host that wants to gate execution can use it directly.
func ValidateDependencies(sections []SectionDeps) ([]string, error) {
	position := make(map[string]int, len(sections))
	for i, s := range sections {
		if _, dup := position[s.ID]; dup {
			return nil, fmt.Errorf("duplicate section id %s", s.ID)
		}
		position[s.ID] = i
	}

	indegree := make(map[string]int, len(sections))
	dependents := make(map[string][]string, len(sections))
	for _, s := range sections {
		indegree[s.ID] += 0
		for _, dep := range s.DependsOn {
			if dep == s.ID {
				return nil, fmt.Errorf("section %s depends on itself", s.ID)
			}
			if _, ok := position[dep]; !ok {
				return nil, fmt.Errorf("section %s depends on unknown section %s", s.ID, dep)
			}
			indegree[s.ID]++
			dependents[dep] = append(dependents[dep], s.ID)
		}
	}

	ready := make([]string, 0, len(sections))
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sortByPosition(ready, position)

	order := make([]string, 0, len(sections))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		released := make([]string, 0, len(dependents[id]))
		for _, next := range dependents[id] {
			indegree[next]--
			if indegree[next] == 0 {
				released = append(released, next)
			}
		}
		sortByPosition(released, position)
		ready = append(ready, released...)
	}

	if len(order) != len(sections) {
		remaining := make([]string, 0)
		for id, deg := range indegree {
			if deg > 0 {
				remaining = append(remaining, id)
			}
		}
		sortByPosition(remaining, position)
		return nil, fmt.Errorf("dependency cycle involving sections %v", remaining)
	}
	return order, nil
}

func sortByPosition(ids []string, position map[string]int) {
	sort.Slice(ids, func(i, j int) bool { return position[ids[i]] < position[ids[j]] })
}
