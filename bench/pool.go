/*
 * pool.go, part of chgbench.
 *
 * Copyright 2024 The chgbench authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package bench

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

type outcome[T any] struct {
	key string
	val T
	err error
}

// runPool runs task once per key, at most workers at a time, and sends the
// outcomes, in completion order, on the returned channel, which is closed
// once every task has finished. Tasks don't cancel each other: a failure
// only shows up in its own outcome. The caller must drain the channel.
func runPool[T any](ctx context.Context, workers int, keys []string, task func(context.Context, string) (T, error)) <-chan outcome[T] {
	out := make(chan outcome[T])
	var g errgroup.Group
	g.SetLimit(workers)
	go func() {
		for _, key := range keys {
			g.Go(func() error {
				var o outcome[T]
				o.key = key
				func() {
					defer func() {
						if r := recover(); r != nil {
							o.err = fmt.Errorf("panic processing %s: %v", key, r)
						}
					}()
					o.val, o.err = task(ctx, key)
				}()
				out <- o
				return nil
			})
		}
		g.Wait()
		close(out)
	}()
	return out
}
