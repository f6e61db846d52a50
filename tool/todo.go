package tool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/agentgraph/todo"
)

// Task-management tool names exposed to the model while a todo list exists.
const (
	TodoListToolName         = "todo_list"
	TodoCreateTaskToolName   = "todo_create_task"
	TodoUpdateStatusToolName = "todo_update_status"
	TodoSetActiveToolName    = "todo_set_active"
)

// NewTodoTools returns the task-management tool set bound to one turn's todo
// list. The list itself is unsynchronized, while the executor may dispatch a
// tool batch concurrently, so the returned tools share one lock and access
// the list one call at a time. They must only be exposed while the owning
// turn is running.
func NewTodoTools(list *todo.List) []Tool {
	mu := &sync.Mutex{}

	return []Tool{
		newTodoListTool(list, mu),
		newTodoCreateTool(list, mu),
		newTodoUpdateStatusTool(list, mu),
		newTodoSetActiveTool(list, mu),
	}
}

func newTodoListTool(list *todo.List, mu *sync.Mutex) Tool {
	return NewFunctionTool(
		TodoListToolName,
		"List all tasks with their status, priority and the overall progress summary",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			mu.Lock()
			defer mu.Unlock()

			return map[string]any{
				"summary": list.Summary(),
				"tasks":   list.All(),
			}, nil
		},
	)
}

func newTodoCreateTool(list *todo.List, mu *sync.Mutex) Tool {
	return NewFunctionTool(
		TodoCreateTaskToolName,
		"Create a new task. Priority is one of low, medium, high, critical (default medium)",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"content":   map[string]any{"type": "string", "description": "What the task is about"},
				"priority":  map[string]any{"type": "string", "description": "low, medium, high or critical"},
				"parent_id": map[string]any{"type": "string", "description": "Optional parent task id"},
			},
			"required": []string{"content"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			content, _ := args["content"].(string)
			if content == "" {
				return nil, NewToolError(TodoCreateTaskToolName, "content must not be empty", "VALIDATION_ERROR")
			}

			mu.Lock()
			defer mu.Unlock()

			task, err := list.Create(content, func(o *todo.CreateOptions) {
				if priority, ok := args["priority"].(string); ok {
					o.Priority = todo.ParsePriority(priority)
				}
				if parentID, ok := args["parent_id"].(string); ok {
					o.ParentID = parentID
				}
			})
			if err != nil {
				if errors.Is(err, todo.ErrTaskNotFound) {
					return nil, NewToolError(TodoCreateTaskToolName, err.Error(), "NOT_FOUND")
				}

				return nil, err
			}

			return task, nil
		},
	)
}

func newTodoUpdateStatusTool(list *todo.List, mu *sync.Mutex) Tool {
	return NewFunctionTool(
		TodoUpdateStatusToolName,
		"Update a task's status. Status is one of pending, in_progress, completed, blocked, cancelled",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_id": map[string]any{"type": "string", "description": "Id of the task to update"},
				"status":  map[string]any{"type": "string", "description": "New status"},
				"result":  map[string]any{"type": "string", "description": "Optional result, recorded on completion"},
			},
			"required": []string{"task_id", "status"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			taskID, _ := args["task_id"].(string)
			status, _ := args["status"].(string)
			result, _ := args["result"].(string)

			mu.Lock()
			defer mu.Unlock()

			task, err := list.UpdateStatus(taskID, todo.ParseStatus(status), result)
			if err != nil {
				if errors.Is(err, todo.ErrTaskNotFound) {
					return nil, NewToolError(TodoUpdateStatusToolName, fmt.Sprintf("task %q not found", taskID), "NOT_FOUND")
				}

				return nil, err
			}

			return task, nil
		},
	)
}

func newTodoSetActiveTool(list *todo.List, mu *sync.Mutex) Tool {
	return NewFunctionTool(
		TodoSetActiveToolName,
		"Set the active task the assistant should work on next, or clear it with an empty id",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_id": map[string]any{"type": "string", "description": "Id of the task to activate, empty to clear"},
			},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			taskID, _ := args["task_id"].(string)

			mu.Lock()
			defer mu.Unlock()

			if !list.SetActive(taskID) {
				return nil, NewToolError(TodoSetActiveToolName, fmt.Sprintf("task %q not found", taskID), "NOT_FOUND")
			}

			return map[string]any{"active_id": taskID, "ok": true}, nil
		},
	)
}
