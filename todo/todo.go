package todo

import (
	"errors"
	"fmt"
	"time"
)

// ErrTaskNotFound is returned when an operation references an unknown task id.
var ErrTaskNotFound = errors.New("task not found")

// Status of a task. Transitions are unrestricted; no ordering is enforced.
type Status string

// Task statuses.
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus maps a string to a Status, defaulting to pending for unknown
// input so model-provided values never fault the store.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusPending, StatusInProgress, StatusCompleted, StatusBlocked, StatusCancelled:
		return Status(s)
	default:
		return StatusPending
	}
}

// Priority of a task.
type Priority string

// Task priorities, ordered critical > high > medium > low.
const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ParsePriority maps a string to a Priority, defaulting to medium.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return Priority(s)
	default:
		return PriorityMedium
	}
}

// rank orders priorities for next-task selection (higher is more urgent).
func (p Priority) rank() int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// Task is one unit of tracked work. Ids are unique within their list; a
// task's Subtasks contains only ids whose ParentID equals the task's own id.
type Task struct {
	ID          string     `json:"id"`
	Content     string     `json:"content"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	ParentID    string     `json:"parent_id,omitempty"`
	DependsOn   []string   `json:"depends_on,omitempty"`
	Subtasks    []string   `json:"subtasks,omitempty"`
	Created     time.Time  `json:"created"`
	Updated     time.Time  `json:"updated"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Result      string     `json:"result,omitempty"`
}

// Summary aggregates the list's progress counters.
type Summary struct {
	Total                int     `json:"total"`
	Completed            int     `json:"completed"`
	InProgress           int     `json:"in_progress"`
	Pending              int     `json:"pending"`
	Blocked              int     `json:"blocked"`
	CompletionPercentage float64 `json:"completion_percentage"`
	ActiveID             string  `json:"active_id,omitempty"`
}

// List is an ordered collection of tasks with an optional active task and a
// monotonic counter for id assignment. It is not safe for concurrent use; a
// list belongs to exactly one turn.
type List struct {
	Tasks    []*Task `json:"tasks"`
	ActiveID string  `json:"active_id,omitempty"`
	Counter  int     `json:"counter"`
}

// NewList creates an empty task list.
func NewList() *List {
	return &List{Tasks: []*Task{}}
}

// CreateOptions configures task creation.
type CreateOptions struct {
	Priority  Priority // Defaults to medium
	ParentID  string   // Optional parent; must reference an existing task
	DependsOn []string // Optional dependency ids
}

// Create appends a new pending task and returns a copy of it. A parent id,
// when given, must reference an existing task; the new id is then added to
// the parent's subtask list.
func (l *List) Create(content string, optFns ...func(o *CreateOptions)) (Task, error) {
	opts := CreateOptions{Priority: PriorityMedium}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Priority == "" {
		opts.Priority = PriorityMedium
	}

	var parent *Task

	if opts.ParentID != "" {
		parent = l.find(opts.ParentID)
		if parent == nil {
			return Task{}, fmt.Errorf("create task: parent %q: %w", opts.ParentID, ErrTaskNotFound)
		}
	}

	l.Counter++

	now := time.Now().UTC()
	task := &Task{
		ID:        fmt.Sprintf("task-%d", l.Counter),
		Content:   content,
		Status:    StatusPending,
		Priority:  opts.Priority,
		ParentID:  opts.ParentID,
		DependsOn: append([]string{}, opts.DependsOn...),
		Created:   now,
		Updated:   now,
	}

	l.Tasks = append(l.Tasks, task)

	if parent != nil {
		parent.Subtasks = append(parent.Subtasks, task.ID)
		parent.Updated = now
	}

	return *task, nil
}

// UpdateStatus sets a task's status and returns a copy of the updated task.
// Completing a task records the completion time and optional result; when all
// of its parent's subtasks are then completed, the parent is completed too
// (one level up). Re-completing an already completed parent is a no-op, so
// the cascade is idempotent.
func (l *List) UpdateStatus(id string, status Status, result string) (Task, error) {
	task := l.find(id)
	if task == nil {
		return Task{}, fmt.Errorf("update status %q: %w", id, ErrTaskNotFound)
	}

	l.applyStatus(task, status, result)

	if status == StatusCompleted && task.ParentID != "" {
		if parent := l.find(task.ParentID); parent != nil && parent.Status != StatusCompleted && l.subtasksCompleted(parent) {
			l.applyStatus(parent, StatusCompleted, "")
		}
	}

	return *task, nil
}

func (l *List) applyStatus(task *Task, status Status, result string) {
	now := time.Now().UTC()
	task.Status = status
	task.Updated = now

	if status == StatusCompleted {
		task.CompletedAt = &now
		if result != "" {
			task.Result = result
		}
	}
}

// subtasksCompleted reports whether every subtask of parent is completed.
// Parents without subtasks never auto-complete.
func (l *List) subtasksCompleted(parent *Task) bool {
	if len(parent.Subtasks) == 0 {
		return false
	}

	for _, id := range parent.Subtasks {
		sub := l.find(id)
		if sub == nil || sub.Status != StatusCompleted {
			return false
		}
	}

	return true
}

// SetActive sets the active task id, or clears it when id is empty. It
// returns false without mutating state when a non-empty id is unknown.
func (l *List) SetActive(id string) bool {
	if id == "" {
		l.ActiveID = ""
		return true
	}

	if l.find(id) == nil {
		return false
	}

	l.ActiveID = id

	return true
}

// Active returns a copy of the active task, or false when none is set or the
// id no longer resolves.
func (l *List) Active() (Task, bool) {
	if l.ActiveID == "" {
		return Task{}, false
	}

	task := l.find(l.ActiveID)
	if task == nil {
		return Task{}, false
	}

	return *task, true
}

// NextPending selects the next pending task: highest priority first, creation
// order as tie-break, skipping tasks whose dependencies are not all
// completed. A dependency referencing a removed task counts as resolved.
// When every pending task has unresolved dependencies, the first pending
// task is returned anyway so selection can never livelock.
func (l *List) NextPending() (Task, bool) {
	var (
		best         *Task
		firstPending *Task
	)

	for _, task := range l.Tasks {
		if task.Status != StatusPending {
			continue
		}

		if firstPending == nil {
			firstPending = task
		}

		if !l.depsResolved(task) {
			continue
		}

		if best == nil || task.Priority.rank() > best.Priority.rank() {
			best = task
		}
	}

	if best != nil {
		return *best, true
	}

	if firstPending != nil {
		return *firstPending, true
	}

	return Task{}, false
}

// depsResolved reports whether all of a task's dependencies are completed.
// Dangling dependency ids are treated as resolved.
func (l *List) depsResolved(task *Task) bool {
	for _, depID := range task.DependsOn {
		dep := l.find(depID)
		if dep == nil {
			continue
		}

		if dep.Status != StatusCompleted {
			return false
		}
	}

	return true
}

// Summary computes aggregate progress counters. The completion percentage is
// 0 for an empty list.
func (l *List) Summary() Summary {
	s := Summary{ActiveID: l.ActiveID}

	for _, task := range l.Tasks {
		s.Total++

		switch task.Status {
		case StatusCompleted:
			s.Completed++
		case StatusInProgress:
			s.InProgress++
		case StatusPending:
			s.Pending++
		case StatusBlocked:
			s.Blocked++
		}
	}

	if s.Total > 0 {
		s.CompletionPercentage = float64(s.Completed) / float64(s.Total) * 100
	}

	return s
}

// Get returns a copy of the task with the given id.
func (l *List) Get(id string) (Task, bool) {
	task := l.find(id)
	if task == nil {
		return Task{}, false
	}

	return *task, true
}

// All returns copies of every task in creation order.
func (l *List) All() []Task {
	tasks := make([]Task, len(l.Tasks))
	for i, task := range l.Tasks {
		tasks[i] = *task
	}

	return tasks
}

// AllCompleted reports whether the list is non-empty and every task is
// completed or cancelled.
func (l *List) AllCompleted() bool {
	if len(l.Tasks) == 0 {
		return false
	}

	for _, task := range l.Tasks {
		if task.Status != StatusCompleted && task.Status != StatusCancelled {
			return false
		}
	}

	return true
}

// Len returns the number of tasks.
func (l *List) Len() int { return len(l.Tasks) }

// Remove deletes a task by id, detaching it from its parent's subtask list.
// Subtasks of the removed task keep their (now dangling) parent id; the
// active id is left untouched so progress analysis can observe the loss.
func (l *List) Remove(id string) bool {
	idx := -1

	for i, task := range l.Tasks {
		if task.ID == id {
			idx = i
			break
		}
	}

	if idx < 0 {
		return false
	}

	removed := l.Tasks[idx]
	l.Tasks = append(l.Tasks[:idx], l.Tasks[idx+1:]...)

	if removed.ParentID != "" {
		if parent := l.find(removed.ParentID); parent != nil {
			for i, subID := range parent.Subtasks {
				if subID == id {
					parent.Subtasks = append(parent.Subtasks[:i], parent.Subtasks[i+1:]...)
					break
				}
			}
		}
	}

	return true
}

// Clone performs a deep copy of the list and all tasks.
func (l *List) Clone() *List {
	clone := &List{
		Tasks:    make([]*Task, len(l.Tasks)),
		ActiveID: l.ActiveID,
		Counter:  l.Counter,
	}

	for i, task := range l.Tasks {
		copied := *task
		copied.DependsOn = append([]string{}, task.DependsOn...)
		copied.Subtasks = append([]string{}, task.Subtasks...)

		if task.CompletedAt != nil {
			at := *task.CompletedAt
			copied.CompletedAt = &at
		}

		clone.Tasks[i] = &copied
	}

	return clone
}

func (l *List) find(id string) *Task {
	for _, task := range l.Tasks {
		if task.ID == id {
			return task
		}
	}

	return nil
}
