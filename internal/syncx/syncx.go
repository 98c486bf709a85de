// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package syncx contains synchronization helpers missing from package sync.
package syncx

import "sync"

// Lazy holds a value that is computed on first use. The zero Lazy is ready to
// use. Unlike [sync.OnceValue], the function is passed at the call site, so a
// Lazy can be embedded in a struct and compute from its fields.
type Lazy[T any] struct {
	once sync.Once
	val  T
	err  error
}

// Get returns the value, calling f to compute it on the first call.
func (l *Lazy[T]) Get(f func() T) T {
	v, _ := l.GetErr(func() (T, error) { return f(), nil })
	return v
}

// GetErr is like Get, but for functions that can fail. The error is
// remembered along with the value.
func (l *Lazy[T]) GetErr(f func() (T, error)) (T, error) {
	l.once.Do(func() { l.val, l.err = f() })
	return l.val, l.err
}
