package checks

import (
	"context"
	"fmt"

	"ozzus/nsca-agent/internal/domain"
)

// Checker runs one kind of task and reports a Nagios result for it. A
// failed probe is a CRITICAL result, never an error.
type Checker interface {
	Type() domain.TaskType
	Check(ctx context.Context, task domain.Task) domain.CheckResult
}

// Set dispatches tasks to the checker registered for their type.
type Set map[domain.TaskType]Checker

func NewSet(checkers ...Checker) Set {
	s := make(Set, len(checkers))
	for _, c := range checkers {
		s[c.Type()] = c
	}
	return s
}

// Types lists the registered task types.
func (s Set) Types() []domain.TaskType {
	types := make([]domain.TaskType, 0, len(s))
	for t := range s {
		types = append(types, t)
	}
	return types
}

// Run checks task with its checker. Unknown task types report UNKNOWN.
func (s Set) Run(ctx context.Context, task domain.Task) domain.CheckResult {
	c, ok := s[task.Type]
	if !ok {
		return task.Result(domain.StateUnknown, fmt.Sprintf("UNKNOWN - no checker for task type %q", task.Type))
	}

	r := c.Check(ctx, task)
	r.Message = limitMessage(r.Message)
	return r
}
