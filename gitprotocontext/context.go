// Copyright 2025 Aviator Technologies, Inc.
// SPDX-License-Identifier: MIT

package gitprotocontext

import (
	"context"
	"time"
)

type contextKey string

func (c contextKey) String() string {
	return "wiregit context key " + string(c)
}

var (
	dialTimeoutKey  = contextKey("dialTimeout")
	dialRetryKey    = contextKey("dialRetryCount")
	fetchTimeoutKey = contextKey("fetchTimeout")
	pushTimeoutKey  = contextKey("pushTimeout")
)

func WithGitDialTimeout(ctx context.Context, timeout time.Duration) context.Context {
	if timeout <= 0 {
		return ctx
	}
	return context.WithValue(ctx, dialTimeoutKey, timeout)
}

func WithGitDialRetryCount(ctx context.Context, retryCount int) context.Context {
	if retryCount < 0 {
		return ctx
	}
	return context.WithValue(ctx, dialRetryKey, retryCount)
}

func WithGitFetchTimeout(ctx context.Context, timeout time.Duration) context.Context {
	if timeout <= 0 {
		return ctx
	}
	return context.WithValue(ctx, fetchTimeoutKey, timeout)
}

func WithGitPushTimeout(ctx context.Context, timeout time.Duration) context.Context {
	if timeout <= 0 {
		return ctx
	}
	return context.WithValue(ctx, pushTimeoutKey, timeout)
}

func GitDialTimeout(ctx context.Context) time.Duration {
	if timeout, ok := ctx.Value(dialTimeoutKey).(time.Duration); ok && timeout > 0 {
		return timeout
	}
	return 0
}

func GitDialRetryCount(ctx context.Context) int {
	if retryCount, ok := ctx.Value(dialRetryKey).(int); ok && retryCount >= 0 {
		return retryCount
	}
	return 0
}

func GitFetchTimeout(ctx context.Context) time.Duration {
	if timeout, ok := ctx.Value(fetchTimeoutKey).(time.Duration); ok && timeout > 0 {
		return timeout
	}
	return 0
}

func GitPushTimeout(ctx context.Context) time.Duration {
	if timeout, ok := ctx.Value(pushTimeoutKey).(time.Duration); ok && timeout > 0 {
		return timeout
	}
	return 0
}
