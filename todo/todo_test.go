package todo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	t.Run("assigns unique ids in creation order", func(t *testing.T) {
		list := NewList()

		first, err := list.Create("first")
		require.NoError(t, err)

		second, err := list.Create("second")
		require.NoError(t, err)

		assert.Equal(t, "task-1", first.ID)
		assert.Equal(t, "task-2", second.ID)
		assert.Equal(t, StatusPending, first.Status)
		assert.Equal(t, PriorityMedium, first.Priority)
	})

	t.Run("appends to parent subtask list", func(t *testing.T) {
		list := NewList()

		parent, err := list.Create("parent")
		require.NoError(t, err)

		sub, err := list.Create("sub", func(o *CreateOptions) {
			o.ParentID = parent.ID
		})
		require.NoError(t, err)

		got, ok := list.Get(parent.ID)
		require.True(t, ok)
		assert.Equal(t, []string{sub.ID}, got.Subtasks)
		assert.Equal(t, parent.ID, sub.ParentID)
	})

	t.Run("unknown parent fails", func(t *testing.T) {
		list := NewList()

		_, err := list.Create("orphan", func(o *CreateOptions) {
			o.ParentID = "task-99"
		})
		assert.ErrorIs(t, err, ErrTaskNotFound)
		assert.Equal(t, 0, list.Len())
	})
}

func TestUpdateStatus(t *testing.T) {
	t.Run("completion records timestamp and result", func(t *testing.T) {
		list := NewList()
		task, _ := list.Create("work")

		updated, err := list.UpdateStatus(task.ID, StatusCompleted, "done it")
		require.NoError(t, err)
		require.NotNil(t, updated.CompletedAt)
		assert.Equal(t, "done it", updated.Result)
	})

	t.Run("unknown id", func(t *testing.T) {
		list := NewList()

		_, err := list.UpdateStatus("task-1", StatusCompleted, "")
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})

	t.Run("parent auto-completes when all subtasks complete", func(t *testing.T) {
		list := NewList()
		parent, _ := list.Create("parent")
		a, _ := list.Create("a", func(o *CreateOptions) { o.ParentID = parent.ID })
		b, _ := list.Create("b", func(o *CreateOptions) { o.ParentID = parent.ID })

		_, err := list.UpdateStatus(a.ID, StatusCompleted, "")
		require.NoError(t, err)

		got, _ := list.Get(parent.ID)
		assert.Equal(t, StatusPending, got.Status)

		_, err = list.UpdateStatus(b.ID, StatusCompleted, "")
		require.NoError(t, err)

		got, _ = list.Get(parent.ID)
		assert.Equal(t, StatusCompleted, got.Status)
		require.NotNil(t, got.CompletedAt)
	})

	t.Run("auto-completion is idempotent", func(t *testing.T) {
		list := NewList()
		parent, _ := list.Create("parent")
		sub, _ := list.Create("sub", func(o *CreateOptions) { o.ParentID = parent.ID })

		_, err := list.UpdateStatus(sub.ID, StatusCompleted, "")
		require.NoError(t, err)

		first, _ := list.Get(parent.ID)
		require.NotNil(t, first.CompletedAt)

		_, err = list.UpdateStatus(sub.ID, StatusCompleted, "")
		require.NoError(t, err)

		second, _ := list.Get(parent.ID)
		assert.True(t, first.CompletedAt.Equal(*second.CompletedAt))
	})
}

func TestSetActive(t *testing.T) {
	list := NewList()
	task, _ := list.Create("work")

	assert.True(t, list.SetActive(task.ID))
	assert.Equal(t, task.ID, list.ActiveID)

	assert.False(t, list.SetActive("task-99"))
	assert.Equal(t, task.ID, list.ActiveID, "failed set must not mutate state")

	assert.True(t, list.SetActive(""))
	assert.Empty(t, list.ActiveID)
}

func TestNextPending(t *testing.T) {
	t.Run("priority order with creation tie-break", func(t *testing.T) {
		list := NewList()
		list.Create("low", func(o *CreateOptions) { o.Priority = PriorityLow })
		high1, _ := list.Create("high first", func(o *CreateOptions) { o.Priority = PriorityHigh })
		list.Create("high second", func(o *CreateOptions) { o.Priority = PriorityHigh })

		next, ok := list.NextPending()
		require.True(t, ok)
		assert.Equal(t, high1.ID, next.ID)
	})

	t.Run("never returns a non-pending task", func(t *testing.T) {
		list := NewList()
		a, _ := list.Create("a", func(o *CreateOptions) { o.Priority = PriorityCritical })
		b, _ := list.Create("b")

		list.UpdateStatus(a.ID, StatusInProgress, "")

		next, ok := list.NextPending()
		require.True(t, ok)
		assert.Equal(t, b.ID, next.ID)
		assert.Equal(t, StatusPending, next.Status)
	})

	t.Run("skips unresolved dependencies", func(t *testing.T) {
		list := NewList()
		dep, _ := list.Create("dep")
		blocked, _ := list.Create("blocked", func(o *CreateOptions) {
			o.Priority = PriorityCritical
			o.DependsOn = []string{dep.ID}
		})

		next, ok := list.NextPending()
		require.True(t, ok)
		assert.Equal(t, dep.ID, next.ID)

		list.UpdateStatus(dep.ID, StatusCompleted, "")

		next, ok = list.NextPending()
		require.True(t, ok)
		assert.Equal(t, blocked.ID, next.ID)
	})

	t.Run("dangling dependency counts as resolved", func(t *testing.T) {
		list := NewList()
		dep, _ := list.Create("dep")
		task, _ := list.Create("task", func(o *CreateOptions) { o.DependsOn = []string{dep.ID} })
		list.UpdateStatus(dep.ID, StatusCompleted, "")
		list.Remove(dep.ID)

		next, ok := list.NextPending()
		require.True(t, ok)
		assert.Equal(t, task.ID, next.ID)
	})

	t.Run("falls back to first pending when nothing is unblocked", func(t *testing.T) {
		list := NewList()
		blocker, _ := list.Create("blocker")
		list.UpdateStatus(blocker.ID, StatusInProgress, "")

		first, _ := list.Create("waits on blocker", func(o *CreateOptions) { o.DependsOn = []string{blocker.ID} })
		list.Create("also waits", func(o *CreateOptions) {
			o.Priority = PriorityCritical
			o.DependsOn = []string{blocker.ID}
		})

		next, ok := list.NextPending()
		require.True(t, ok)
		assert.Equal(t, first.ID, next.ID, "anti-livelock fallback picks the first pending task")
	})

	t.Run("empty list", func(t *testing.T) {
		list := NewList()

		_, ok := list.NextPending()
		assert.False(t, ok)
	})
}

func TestSummary(t *testing.T) {
	t.Run("empty list reports zero percent", func(t *testing.T) {
		list := NewList()

		s := list.Summary()
		assert.Equal(t, 0, s.Total)
		assert.Equal(t, float64(0), s.CompletionPercentage)
	})

	t.Run("counts by status", func(t *testing.T) {
		list := NewList()
		a, _ := list.Create("a")
		b, _ := list.Create("b")
		c, _ := list.Create("c")
		list.Create("d")

		list.UpdateStatus(a.ID, StatusCompleted, "")
		list.UpdateStatus(b.ID, StatusInProgress, "")
		list.UpdateStatus(c.ID, StatusBlocked, "")
		list.SetActive(b.ID)

		s := list.Summary()
		assert.Equal(t, 4, s.Total)
		assert.Equal(t, 1, s.Completed)
		assert.Equal(t, 1, s.InProgress)
		assert.Equal(t, 1, s.Pending)
		assert.Equal(t, 1, s.Blocked)
		assert.Equal(t, float64(25), s.CompletionPercentage)
		assert.Equal(t, b.ID, s.ActiveID)
	})

	t.Run("all completed reports 100", func(t *testing.T) {
		list := NewList()
		a, _ := list.Create("a")
		list.UpdateStatus(a.ID, StatusCompleted, "")

		assert.Equal(t, float64(100), list.Summary().CompletionPercentage)
		assert.True(t, list.AllCompleted())
	})
}

func TestRemove(t *testing.T) {
	list := NewList()
	parent, _ := list.Create("parent")
	sub, _ := list.Create("sub", func(o *CreateOptions) { o.ParentID = parent.ID })
	list.SetActive(sub.ID)

	assert.True(t, list.Remove(sub.ID))
	assert.False(t, list.Remove(sub.ID))

	got, _ := list.Get(parent.ID)
	assert.Empty(t, got.Subtasks)
	assert.Equal(t, sub.ID, list.ActiveID, "active id is preserved so replan logic can detect the loss")

	_, ok := list.Active()
	assert.False(t, ok)
}

func TestClone(t *testing.T) {
	list := NewList()
	task, _ := list.Create("work", func(o *CreateOptions) { o.DependsOn = []string{"task-9"} })
	list.SetActive(task.ID)

	clone := list.Clone()
	clone.UpdateStatus(task.ID, StatusCompleted, "finished")
	clone.Create("extra")

	original, _ := list.Get(task.ID)
	assert.Equal(t, StatusPending, original.Status)
	assert.Equal(t, 1, list.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, StatusCompleted, ParseStatus("completed"))
	assert.Equal(t, StatusPending, ParseStatus("bogus"))
	assert.Equal(t, PriorityCritical, ParsePriority("critical"))
	assert.Equal(t, PriorityMedium, ParsePriority(""))
}
