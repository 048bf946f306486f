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
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog(t *testing.T) {
	t.Run("it adds the audit fields to the logger", func(t *testing.T) {
		ctx := TestContext()

		actual := Log(ctx, logrus.NewEntry(logrus.StandardLogger()).WithField("module", "VCR"), "test")

		assert.Equal(t, "test", actual.Data["event"])
		assert.Equal(t, TestActor, actual.Data["actor"])
		assert.Equal(t, "TestModule.TestOperation", actual.Data["operation"])
		assert.Equal(t, "audit", actual.Data["log"])
		assert.Equal(t, "VCR", actual.Data["module"])
	})
	t.Run("it panics when no actor is set", func(t *testing.T) {
		assert.Panics(t, func() {
			Log(context.Background(), logrus.NewEntry(logrus.StandardLogger()), "test")
		})
	})
	t.Run("it panics when no event name is set", func(t *testing.T) {
		assert.Panics(t, func() {
			Log(TestContext(), logrus.NewEntry(logrus.StandardLogger()), "")
		})
	})
	t.Run("captured", func(t *testing.T) {
		capturedLog := CaptureLogs(t)

		Log(TestContext(), logrus.NewEntry(logrus.StandardLogger()).WithField("module", "VCR"), PresentationSentEvent).Info("Presentation sent")

		capturedLog.AssertContains(t, "VCR", PresentationSentEvent, TestActor, "Presentation sent")
		assert.False(t, capturedLog.Contains(t, CredentialIssuedEvent))
	})
}

func TestAuditFormatter_Format(t *testing.T) {
	entry := logrus.NewEntry(logrus.New())
	entry.Level = logrus.InfoLevel
	entry.Message = "hello"

	t.Run("text", func(t *testing.T) {
		formatted, err := (&auditFormatter{formatter: &logrus.TextFormatter{DisableColors: true}}).Format(entry)

		require.NoError(t, err)
		assert.True(t, bytes.Contains(formatted, []byte("level=audit")))
	})
	t.Run("json", func(t *testing.T) {
		formatted, err := (&auditFormatter{formatter: &logrus.JSONFormatter{}}).Format(entry)

		require.NoError(t, err)
		assert.True(t, bytes.Contains(formatted, []byte(`"level":"audit"`)))
	})
}

func TestInfoFromContext(t *testing.T) {
	assert.Nil(t, InfoFromContext(context.Background()))
	info := InfoFromContext(Context(context.Background(), "actor", "VCR", "present"))
	require.NotNil(t, info)
	assert.Equal(t, "VCR.present", info.Operation)
}

func TestContextOrDefault(t *testing.T) {
	t.Run("keeps existing audit information", func(t *testing.T) {
		ctx := ContextOrDefault(TestContext(), "other", "VCR", "present")

		assert.Equal(t, TestActor, InfoFromContext(ctx).Actor)
	})
	t.Run("uses the given actor", func(t *testing.T) {
		ctx := ContextOrDefault(context.Background(), "user-1", "VCR", "present")

		assert.Equal(t, "user-1", InfoFromContext(ctx).Actor)
		assert.Equal(t, "VCR.present", InfoFromContext(ctx).Operation)
	})
	t.Run("falls back to the system actor", func(t *testing.T) {
		ctx := ContextOrDefault(context.Background(), "", "VCR", "present")

		assert.Equal(t, SystemActor, InfoFromContext(ctx).Actor)
	})
}
