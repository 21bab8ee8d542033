// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package co holds small concurrency helpers.
package co

import (
	"sync"
)

// Waiter follows the broadcasts of a Signal.
type Waiter[T any] interface {
	// C returns a channel closed by the first broadcast after the previous call to C.
	// The first call returns a channel closed by the first broadcast after the waiter was created.
	C() <-chan struct{}
	// Value returns the value of the latest broadcast.
	Value() (T, bool)
}

// Signal announces the occurrence of an event, carrying its latest value, to any number
// of waiters. Unlike sync.Cond it is channel based, so waiting can be combined with
// other channels in a select.
type Signal[T any] struct {
	l     sync.Mutex
	ch    chan struct{}
	value T
	set   bool
}

func (s *Signal[T]) init() {
	if s.ch == nil {
		s.ch = make(chan struct{})
	}
}

// Broadcast records v as the latest value and wakes every waiter.
func (s *Signal[T]) Broadcast(v T) {
	s.l.Lock()
	defer s.l.Unlock()

	s.init()
	s.value, s.set = v, true
	close(s.ch)
	s.ch = make(chan struct{})
}

// Value returns the latest broadcast value, false if nothing was broadcast yet.
func (s *Signal[T]) Value() (T, bool) {
	s.l.Lock()
	defer s.l.Unlock()
	return s.value, s.set
}

// NewWaiter creates a waiter for broadcasts that happen after this call.
func (s *Signal[T]) NewWaiter() Waiter[T] {
	s.l.Lock()
	defer s.l.Unlock()

	s.init()
	return &waiter[T]{s: s, ref: s.ch}
}

type waiter[T any] struct {
	s   *Signal[T]
	ref chan struct{}
}

func (w *waiter[T]) C() <-chan struct{} {
	ch := w.ref

	w.s.l.Lock()
	w.ref = w.s.ch
	w.s.l.Unlock()

	// a broadcast between the previous call and now has already closed ch
	return ch
}

func (w *waiter[T]) Value() (T, bool) {
	return w.s.Value()
}
