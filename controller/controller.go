/*
 *
 * themectl - theme injection for Chromium-based desktop apps
 * Copyright (C) 2026 The themectl Authors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

// Package controller drives theme operations across running app instances.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/codexthemes/themectl/cdp"
	"github.com/codexthemes/themectl/launcher"
	"github.com/codexthemes/themectl/log"
	"github.com/codexthemes/themectl/process"
)

var (
	// ErrNoDebugPort is returned for instances started without a debugging port.
	ErrNoDebugPort = errors.New("no --remote-debugging-port")
	// ErrNoInjectableInstances is returned when no running instance has a
	// debugging port.
	ErrNoInjectableInstances = errors.New("no injectable instances (missing --remote-debugging-port)")
	// ErrSuperseded is returned by an operation that was cancelled because a
	// newer one was started on the same port.
	ErrSuperseded = errors.New("superseded by a newer operation on the same port")
)

// Scanner lists running instances.
type Scanner interface {
	Scan(ctx context.Context) ([]process.Instance, error)
}

// Themer applies and removes themes on the debuggee listening on a port.
type Themer interface {
	ApplyTheme(ctx context.Context, port int, themeID string) ([]cdp.InjectionResult, error)
	RemoveTheme(ctx context.Context, port int) ([]cdp.InjectionResult, error)
}

// Launcher starts a new instance.
type Launcher interface {
	Launch(ctx context.Context, port int) error
}

// Controller runs at most one operation per port at a time. Starting an
// operation on a busy port cancels the one in flight.
type Controller struct {
	scanner  Scanner
	themer   Themer
	launcher Launcher
	logger   *log.Logger

	mu    sync.Mutex
	slots map[int]*slot
}

// slot serializes the operations on one port. It is dropped from
// Controller.slots once no operation holds or waits for it.
type slot struct {
	sem    *semaphore.Weighted
	gen    uint64
	users  int
	cancel context.CancelCauseFunc
}

// New returns a Controller.
func New(scanner Scanner, themer Themer, launcher Launcher, logger *log.Logger) *Controller {
	return &Controller{
		scanner:  scanner,
		themer:   themer,
		launcher: launcher,
		logger:   logger,
		slots:    make(map[int]*slot),
	}
}

// Scan lists the running instances.
func (c *Controller) Scan(ctx context.Context) ([]process.Instance, error) {
	return c.scanner.Scan(ctx)
}

// ApplyPort applies themeID to the debuggee on port.
func (c *Controller) ApplyPort(ctx context.Context, port int, themeID string) ([]cdp.InjectionResult, error) {
	return c.exclusive(ctx, port, func(ctx context.Context) ([]cdp.InjectionResult, error) {
		return c.themer.ApplyTheme(ctx, port, themeID)
	})
}

// RemovePort removes the theme from the debuggee on port.
func (c *Controller) RemovePort(ctx context.Context, port int) ([]cdp.InjectionResult, error) {
	return c.exclusive(ctx, port, func(ctx context.Context) ([]cdp.InjectionResult, error) {
		return c.themer.RemoveTheme(ctx, port)
	})
}

// Apply applies themeID to inst.
func (c *Controller) Apply(ctx context.Context, inst process.Instance, themeID string) ([]cdp.InjectionResult, error) {
	if !inst.Injectable() {
		return nil, fmt.Errorf("pid %d: %w", inst.PID, ErrNoDebugPort)
	}
	res, err := c.ApplyPort(ctx, inst.Port(), themeID)
	if err != nil {
		return nil, fmt.Errorf("pid %d: %w", inst.PID, err)
	}
	return res, nil
}

// Remove removes the theme from inst.
func (c *Controller) Remove(ctx context.Context, inst process.Instance) ([]cdp.InjectionResult, error) {
	if !inst.Injectable() {
		return nil, fmt.Errorf("pid %d: %w", inst.PID, ErrNoDebugPort)
	}
	res, err := c.RemovePort(ctx, inst.Port())
	if err != nil {
		return nil, fmt.Errorf("pid %d: %w", inst.PID, err)
	}
	return res, nil
}

// Summary reports the outcome of an operation over every injectable
// instance.
type Summary struct {
	Instances  []process.Instance
	Applied    int
	Failed     int
	Total      int
	FirstError error
}

// ApplyAll scans for instances and applies themeID to each injectable one.
// A failing instance does not stop the others; see Summary.
func (c *Controller) ApplyAll(ctx context.Context, themeID string) (Summary, error) {
	return c.all(ctx, func(ctx context.Context, inst process.Instance) error {
		_, err := c.Apply(ctx, inst, themeID)
		return err
	})
}

// RemoveAll scans for instances and removes the theme from each injectable
// one.
func (c *Controller) RemoveAll(ctx context.Context) (Summary, error) {
	return c.all(ctx, func(ctx context.Context, inst process.Instance) error {
		_, err := c.Remove(ctx, inst)
		return err
	})
}

func (c *Controller) all(ctx context.Context, op func(context.Context, process.Instance) error) (Summary, error) {
	instances, err := c.scanner.Scan(ctx)
	if err != nil {
		return Summary{}, err
	}
	injectable := process.Injectable(instances)
	sum := Summary{Instances: instances, Total: len(injectable)}
	if len(injectable) == 0 {
		return sum, ErrNoInjectableInstances
	}

	for _, inst := range injectable {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if err := op(ctx, inst); err != nil {
			c.logger.Debugf("controller", "pid:%d port:%d err:%v", inst.PID, inst.Port(), err)
			sum.Failed++
			if sum.FirstError == nil {
				sum.FirstError = err
			}
			continue
		}
		sum.Applied++
	}
	return sum, nil
}

// LaunchAndApply starts a new instance on port and applies themeID once its
// pages show up.
func (c *Controller) LaunchAndApply(ctx context.Context, port int, themeID string) ([]cdp.InjectionResult, error) {
	if err := launcher.ValidatePort(port); err != nil {
		return nil, err
	}
	if err := c.launcher.Launch(ctx, port); err != nil {
		return nil, err
	}
	c.logger.Debugf("controller", "launched on port:%d, applying %s", port, themeID)
	return c.ApplyPort(ctx, port, themeID)
}

func (c *Controller) exclusive(
	ctx context.Context, port int, op func(context.Context) ([]cdp.InjectionResult, error),
) ([]cdp.InjectionResult, error) {
	opCtx, release, err := c.acquire(ctx, port)
	if err != nil {
		return nil, err
	}
	defer release()

	res, err := op(opCtx)
	if err != nil && errors.Is(context.Cause(opCtx), ErrSuperseded) && ctx.Err() == nil {
		return nil, ErrSuperseded
	}
	return res, err
}

// acquire cancels the operation in flight on port, if any, and waits for
// the port to be free.
func (c *Controller) acquire(ctx context.Context, port int) (context.Context, func(), error) {
	opCtx, cancel := context.WithCancelCause(ctx)

	c.mu.Lock()
	s, ok := c.slots[port]
	if !ok {
		s = &slot{sem: semaphore.NewWeighted(1)}
		c.slots[port] = s
	}
	if s.cancel != nil {
		s.cancel(ErrSuperseded)
	}
	s.gen++
	s.users++
	gen := s.gen
	s.cancel = cancel
	c.mu.Unlock()

	if err := s.sem.Acquire(opCtx, 1); err != nil {
		c.leave(port, s, gen)
		cancel(nil)
		if cause := context.Cause(opCtx); errors.Is(cause, ErrSuperseded) && ctx.Err() == nil {
			return nil, nil, ErrSuperseded
		}
		return nil, nil, err
	}

	release := func() {
		s.sem.Release(1)
		c.leave(port, s, gen)
		cancel(nil)
	}
	return opCtx, release, nil
}

func (c *Controller) leave(port int, s *slot, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.gen == gen {
		s.cancel = nil
	}
	s.users--
	if s.users == 0 {
		delete(c.slots, port)
	}
}
