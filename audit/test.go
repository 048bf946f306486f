/*
 * Nuts node
 * Copyright (C) 2021 Nuts community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package audit

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// TestActor is the actor of TestContext.
const TestActor = "test-actor"

// TestContext returns a context with audit information, for use in tests.
func TestContext() context.Context {
	return Context(context.Background(), TestActor, "TestModule", "TestOperation")
}

// ContextWithAuditInfo returns a gomock matcher for contexts carrying audit information.
func ContextWithAuditInfo() gomock.Matcher {
	return auditInfoMatcher{}
}

type auditInfoMatcher struct{}

func (auditInfoMatcher) Matches(x interface{}) bool {
	ctx, ok := x.(context.Context)
	return ok && InfoFromContext(ctx) != nil
}

func (auditInfoMatcher) String() string {
	return "is a context with audit info"
}

// AssertAuditInfo asserts the request of the echo context carries the given audit information.
func AssertAuditInfo(t *testing.T, ctx echo.Context, actor, module, operation string) {
	t.Helper()
	info := InfoFromContext(ctx.Request().Context())
	require.NotNil(t, info, "request context has no audit info")
	assert.Equal(t, Info{Actor: actor, Operation: module + "." + operation}, *info)
}

// CapturedLog holds the audit events logged during a test.
type CapturedLog struct {
	hook *test.Hook
}

// CaptureLogs records audit events until the test completes.
func CaptureLogs(t *testing.T) *CapturedLog {
	previous := make(logrus.LevelHooks)
	for level, hooks := range auditLogger().Hooks {
		previous[level] = hooks
	}
	t.Cleanup(func() {
		auditLogger().ReplaceHooks(previous)
	})
	hook := new(test.Hook)
	auditLogger().AddHook(hook)
	return &CapturedLog{hook: hook}
}

// Contains returns true if an event with the given name was logged.
func (c *CapturedLog) Contains(t *testing.T, eventName string) bool {
	t.Helper()
	return c.find(func(entry *logrus.Entry) bool { return entry.Data["event"] == eventName }) != nil
}

// AssertContains asserts an event was logged by the module on behalf of the actor, with the given message.
func (c *CapturedLog) AssertContains(t *testing.T, module string, event string, actor string, message string) {
	t.Helper()
	entry := c.find(func(entry *logrus.Entry) bool {
		return entry.Data["module"] == module && entry.Data["event"] == event &&
			entry.Data["actor"] == actor && entry.Message == message
	})
	if entry == nil {
		t.Errorf("audit log has no entry (module=%s, event=%s, actor=%s, message=%s), found:\n%s", module, event, actor, message, c)
		return
	}
	formatted, err := entry.Logger.Formatter.Format(entry)
	require.NoError(t, err)
	if !strings.Contains(string(formatted), "level=audit") && !strings.Contains(string(formatted), `"level":"audit"`) {
		t.Errorf("audit event is not logged on audit level: %s", formatted)
	}
}

func (c *CapturedLog) find(predicate func(entry *logrus.Entry) bool) *logrus.Entry {
	for _, entry := range c.hook.AllEntries() {
		if predicate(entry) {
			return entry
		}
	}
	return nil
}

// String returns the captured entries in text format.
func (c *CapturedLog) String() string {
	var lines strings.Builder
	for _, entry := range c.hook.AllEntries() {
		formatted, _ := (&logrus.TextFormatter{}).Format(entry)
		_, _ = fmt.Fprintf(&lines, "  %s", formatted)
	}
	return lines.String()
}
