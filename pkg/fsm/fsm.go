// Package fsm 提供一个轻量的泛型有限状态机，用于聚合根的状态流转校验
package fsm

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidTransition 当前状态不允许触发该事件
var ErrInvalidTransition = errors.New("fsm: invalid transition")

// TransitionError 描述一次被拒绝的状态流转
type TransitionError struct {
	From  string
	Event string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("fsm: event %s not allowed in state %s", e.Event, e.From)
}

// Is 使 errors.Is(err, ErrInvalidTransition) 成立
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// Hook 状态流转成功后的回调
type Hook[S comparable, E comparable] func(ctx context.Context, from S, event E, to S)

// Machine 状态机
type Machine[S comparable, E comparable] struct {
	current     S
	transitions map[S]map[E]S
	hooks       []Hook[S, E]
}

// NewMachine 以初始状态创建状态机
func NewMachine[S comparable, E comparable](initial S) *Machine[S, E] {
	return &Machine[S, E]{
		current:     initial,
		transitions: make(map[S]map[E]S),
	}
}

// AddTransition 注册 from --event--> to
func (m *Machine[S, E]) AddTransition(from S, event E, to S) *Machine[S, E] {
	if _, ok := m.transitions[from]; !ok {
		m.transitions[from] = make(map[E]S)
	}
	m.transitions[from][event] = to
	return m
}

// OnTransition 注册流转回调
func (m *Machine[S, E]) OnTransition(h Hook[S, E]) {
	m.hooks = append(m.hooks, h)
}

// Current 当前状态
func (m *Machine[S, E]) Current() S {
	return m.current
}

// Can 判断当前状态下能否触发事件
func (m *Machine[S, E]) Can(event E) bool {
	_, ok := m.transitions[m.current][event]
	return ok
}

// Trigger 触发事件并推进状态；上下文已取消时不做任何变更
func (m *Machine[S, E]) Trigger(ctx context.Context, event E) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to, ok := m.transitions[m.current][event]
	if !ok {
		return &TransitionError{From: fmt.Sprint(m.current), Event: fmt.Sprint(event)}
	}
	from := m.current
	m.current = to
	for _, h := range m.hooks {
		h(ctx, from, event, to)
	}
	return nil
}
