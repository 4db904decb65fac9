package board

import "github.com/twiced-technology-gmbh/protodo/internal/task"

// groupByStatus buckets tasks into columns keyed by normalized status.
// Columns named in order come first, in that order, followed by any other
// status in order of first appearance. Every column is pinned-sorted.
func groupByStatus(tasks []*task.Task, order []string) (map[string][]*task.Task, []string) {
	cols := make(map[string][]*task.Task, len(order))
	keys := append([]string(nil), order...)
	for _, k := range order {
		cols[k] = []*task.Task{}
	}
	for _, t := range tasks {
		status := task.NormalizeStatus(t.Status)
		t.Status = status
		if _, ok := cols[status]; !ok {
			cols[status] = []*task.Task{}
			keys = append(keys, status)
		}
		cols[status] = append(cols[status], t)
	}
	for _, k := range keys {
		SortPinned(cols[k])
	}
	return cols, keys
}

// columnOrder merges base statuses and custom statuses without duplicates.
func columnOrder(base []string, custom []task.CustomStatus) []string {
	order := make([]string, 0, len(base)+len(custom))
	seen := make(map[string]bool, len(base)+len(custom))
	for _, s := range base {
		if !seen[s] {
			order = append(order, s)
			seen[s] = true
		}
	}
	for _, cs := range custom {
		if !seen[cs.Name] {
			order = append(order, cs.Name)
			seen[cs.Name] = true
		}
	}
	return order
}
