package localstore

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrTaskNotFound = fmt.Errorf("task not found")

type NewTask struct {
	Title              string
	Description        string
	EstimatedPomodoros int
	Priority           Priority
	Category           string
}

func (s *Store) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasksLocked()
}

func (s *Store) tasksLocked() []Task {
	var tasks []Task
	if !s.readLocked(KeyTasks, &tasks) || tasks == nil {
		return []Task{}
	}
	return tasks
}

func (s *Store) SaveTasks(tasks []Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tasks == nil {
		tasks = []Task{}
	}
	return s.writeLocked(KeyTasks, tasks)
}

func (s *Store) AddTask(input NewTask, now time.Time) (Task, error) {
	if input.Priority == "" {
		input.Priority = PriorityMedium
	}
	if input.EstimatedPomodoros == 0 {
		input.EstimatedPomodoros = 1
	}
	task := Task{
		ID:                 uuid.NewString(),
		Title:              strings.TrimSpace(input.Title),
		Description:        strings.TrimSpace(input.Description),
		CreatedAt:          now.UTC(),
		EstimatedPomodoros: input.EstimatedPomodoros,
		Priority:           input.Priority,
		Category:           strings.TrimSpace(input.Category),
	}
	if err := task.Validate(); err != nil {
		return Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := append(s.tasksLocked(), task)
	if err := s.writeLocked(KeyTasks, tasks); err != nil {
		return Task{}, err
	}
	return task, nil
}

// UpdateTask applies fn to the task with id and saves the list.
func (s *Store) UpdateTask(id string, fn func(*Task)) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.tasksLocked()
	for i := range tasks {
		if tasks[i].ID != id {
			continue
		}
		fn(&tasks[i])
		if err := tasks[i].Validate(); err != nil {
			return Task{}, err
		}
		if err := s.writeLocked(KeyTasks, tasks); err != nil {
			return Task{}, err
		}
		return tasks[i], nil
	}
	return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
}

func (s *Store) CompleteTask(id string, now time.Time) (Task, error) {
	return s.UpdateTask(id, func(t *Task) {
		t.Completed = !t.Completed
		if t.Completed {
			at := now.UTC()
			t.CompletedAt = &at
		} else {
			t.CompletedAt = nil
		}
	})
}

func (s *Store) TogglePin(id string) (Task, error) {
	return s.UpdateTask(id, func(t *Task) {
		t.Pinned = !t.Pinned
	})
}

// IncrementPomodoros credits one finished work interval to the task.
func (s *Store) IncrementPomodoros(id string) (Task, error) {
	return s.UpdateTask(id, func(t *Task) {
		t.CompletedPomodoros++
	})
}

func (s *Store) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.tasksLocked()
	kept := tasks[:0]
	found := false
	for _, task := range tasks {
		if task.ID == id {
			found = true
			continue
		}
		kept = append(kept, task)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return s.writeLocked(KeyTasks, kept)
}

// FindTask resolves a full id or a unique id prefix.
func (s *Store) FindTask(ref string) (Task, error) {
	var match *Task
	tasks := s.Tasks()
	for i := range tasks {
		if tasks[i].ID == ref {
			return tasks[i], nil
		}
		if strings.HasPrefix(tasks[i].ID, ref) {
			if match != nil {
				return Task{}, fmt.Errorf("task prefix %q is ambiguous", ref)
			}
			match = &tasks[i]
		}
	}
	if match == nil {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, ref)
	}
	return *match, nil
}

// SortTasks orders open tasks before completed ones, then pinned first,
// then by priority and age.
func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		if a.Priority.rank() != b.Priority.rank() {
			return a.Priority.rank() > b.Priority.rank()
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

type TaskStats struct {
	Total     int
	Active    int
	Completed int
}

func CountTasks(tasks []Task) TaskStats {
	stats := TaskStats{Total: len(tasks)}
	for _, task := range tasks {
		if task.Completed {
			stats.Completed++
		} else {
			stats.Active++
		}
	}
	return stats
}
