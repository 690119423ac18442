package swarm

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/wesleyorama2/booker/internal/booker"
	"github.com/wesleyorama2/booker/internal/config"
	"github.com/wesleyorama2/booker/internal/http"
	"github.com/wesleyorama2/booker/internal/load"
)

// Task is one weighted user action.
type Task struct {
	Name   string
	Weight int
	run    func(ctx context.Context, s *Swarm, u *User)
}

// taskTable picks tasks proportionally to their weights.
type taskTable struct {
	tasks []Task
	total int
}

func newTaskTable(weights map[string]int) (*taskTable, error) {
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	t := &taskTable{}
	for _, name := range names {
		w := weights[name]
		if w < 0 {
			return nil, fmt.Errorf("task %q: weight must not be negative", name)
		}
		run, ok := builtinTasks[name]
		if !ok {
			return nil, fmt.Errorf("unknown task %q", name)
		}
		if w == 0 {
			continue
		}
		t.tasks = append(t.tasks, Task{Name: name, Weight: w, run: run})
		t.total += w
	}
	if t.total == 0 {
		return nil, fmt.Errorf("no task has a positive weight")
	}
	return t, nil
}

func (t *taskTable) pick(rng *rand.Rand) Task {
	n := rng.Intn(t.total)
	for _, task := range t.tasks {
		if n < task.Weight {
			return task
		}
		n -= task.Weight
	}
	return t.tasks[len(t.tasks)-1]
}

var builtinTasks = map[string]func(ctx context.Context, s *Swarm, u *User){
	config.TaskPing:            pingTask,
	config.TaskAuth:            authTask,
	config.TaskCreateGetDelete: createGetDeleteTask,
}

func pingTask(ctx context.Context, s *Swarm, u *User) {
	s.do(ctx, u, load.OpPing, func(ctx context.Context) (*http.Response, error) {
		return s.client.Ping(ctx)
	})
}

// authTask refreshes the user's token; any failure clears it.
func authTask(ctx context.Context, s *Swarm, u *User) {
	u.token = ""
	resp := s.do(ctx, u, load.OpAuth, func(ctx context.Context) (*http.Response, error) {
		return s.client.CreateToken(ctx, s.config.Credentials)
	})
	if resp == nil || !booker.SuccessStatus(resp.StatusCode) {
		return
	}
	if token, err := booker.TokenFrom(resp); err == nil {
		u.token = token
	}
}

func createGetDeleteTask(ctx context.Context, s *Swarm, u *User) {
	resp := s.do(ctx, u, load.OpCreate, func(ctx context.Context) (*http.Response, error) {
		return s.client.CreateBooking(ctx, booker.LoadBookingPayload())
	})
	if resp == nil || (resp.StatusCode != 200 && resp.StatusCode != 201) {
		return
	}
	id, err := booker.BookingIDFrom(resp)
	if err != nil {
		return
	}

	s.do(ctx, u, load.OpGet, func(ctx context.Context) (*http.Response, error) {
		return s.client.GetBooking(ctx, id)
	})
	s.do(ctx, u, load.OpDelete, func(ctx context.Context) (*http.Response, error) {
		return s.client.DeleteBooking(ctx, id, u.token)
	})
}
