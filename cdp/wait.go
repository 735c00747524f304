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

package cdp

import (
	"context"
	"time"

	"github.com/codexthemes/themectl/log"
)

const (
	DefaultWaitAttempts = 12
	DefaultWaitDelay    = 250 * time.Millisecond
)

// TargetSource lists the targets of the debuggee on a port.
type TargetSource interface {
	FetchTargets(ctx context.Context, port int) ([]Target, error)
}

// WaitPolicy bounds how long to wait for a freshly launched debuggee to
// expose its page targets.
type WaitPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultWaitPolicy waits up to about 3s.
func DefaultWaitPolicy() WaitPolicy {
	return WaitPolicy{MaxAttempts: DefaultWaitAttempts, Delay: DefaultWaitDelay}
}

func (p WaitPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// WaitForEligibleTargets polls src until it reports at least one eligible
// target, and returns those. Fetch errors are retried; once the attempts are
// used up the last error is returned, or an empty slice if no attempt
// failed.
func WaitForEligibleTargets(
	ctx context.Context, src TargetSource, port int, policy WaitPolicy, logger *log.Logger,
) ([]Target, error) {
	var (
		attempts = policy.attempts()
		lastErr  error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		targets, err := src.FetchTargets(ctx, port)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			lastErr = err
			logger.Debugf("cdp:wait", "port:%d attempt:%d/%d err:%v", port, attempt, attempts, err)
		default:
			if eligible := EligibleTargets(targets); len(eligible) > 0 {
				return eligible, nil
			}
			logger.Debugf("cdp:wait", "port:%d attempt:%d/%d no page targets yet", port, attempt, attempts)
		}

		if attempt < attempts {
			if err := sleep(ctx, policy.Delay); err != nil {
				return nil, err
			}
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return []Target{}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
