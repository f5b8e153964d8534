package domain

import "math"

// TaskStats summarises a board's task list.
type TaskStats struct {
	Total          int `json:"total"`
	ToDo           int `json:"todo"`
	InProgress     int `json:"inProgress"`
	Done           int `json:"done"`
	HighPriority   int `json:"highPriority"`
	CompletionRate int `json:"completionRate"`
}

// ComputeStats counts tasks per column. CompletionRate is the rounded
// percentage of done tasks, zero for an empty list.
func ComputeStats(tasks []Task) TaskStats {
	var s TaskStats
	for _, t := range tasks {
		s.Total++
		switch t.Status {
		case StatusToDo:
			s.ToDo++
		case StatusInProgress:
			s.InProgress++
		case StatusDone:
			s.Done++
		}
		if t.Priority == PriorityHigh {
			s.HighPriority++
		}
	}
	if s.Total > 0 {
		s.CompletionRate = int(math.Round(float64(s.Done) / float64(s.Total) * 100))
	}
	return s
}

// GroupByStatus returns the tasks of each column in column order, keeping the
// relative order of the board's task list.
func GroupByStatus(tasks []Task) map[Status][]Task {
	out := make(map[Status][]Task, len(Statuses))
	for _, s := range Statuses {
		out[s] = []Task{}
	}
	for _, t := range tasks {
		out[t.Status] = append(out[t.Status], t)
	}
	return out
}
