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

// Package audit writes audit events of security relevant operations to a dedicated logger,
// and keeps records of the presentations the wallet disclosed to verifiers.
package audit

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	// CredentialIssuedEvent occurs when an issuer issued a credential that was stored in the wallet.
	CredentialIssuedEvent = "CredentialIssued"
	// CredentialRemovedEvent occurs when a credential was removed from the wallet.
	CredentialRemovedEvent = "CredentialRemoved"
	// PresentationSentEvent occurs when the wallet disclosed credentials to a verifier.
	PresentationSentEvent = "PresentationSent"
	// ProxyRequestEvent occurs when the wallet backend relayed a call to an issuer or verifier.
	ProxyRequestEvent = "ProxyRequest"
)

type auditContextKey struct{}

// Info contains the audit information of an operation: who invoked it and through what.
type Info struct {
	// Actor is the user or system that invoked the operation.
	Actor string
	// Operation is the name of the operation, as <module>.<operation>.
	Operation string
}

// Context returns a child context carrying the given audit information.
func Context(ctx context.Context, actor, module, operation string) context.Context {
	return context.WithValue(ctx, auditContextKey{}, Info{
		Actor:     actor,
		Operation: module + "." + operation,
	})
}

// SystemActor is the actor of operations that can't be attributed to a user.
const SystemActor = "wallet"

// ContextOrDefault returns the given context if it carries audit information.
// Otherwise, it returns a child context with the given actor (SystemActor if empty) and operation.
func ContextOrDefault(ctx context.Context, actor, module, operation string) context.Context {
	if info := InfoFromContext(ctx); info != nil && info.Actor != "" {
		return ctx
	}
	if actor == "" {
		actor = SystemActor
	}
	return Context(ctx, actor, module, operation)
}

// InfoFromContext returns the audit information of the context, or nil if there is none.
func InfoFromContext(ctx context.Context) *Info {
	info, ok := ctx.Value(auditContextKey{}).(Info)
	if !ok {
		return nil
	}
	return &info
}

// Log returns a log entry on the audit logger for the given event, carrying the fields of the given logger.
// It panics when the context has no audit information or the event name is empty: audit events must be attributable.
func Log(ctx context.Context, logger *logrus.Entry, eventName string) *logrus.Entry {
	info := InfoFromContext(ctx)
	if info == nil || info.Actor == "" {
		panic("audit: missing actor in context")
	}
	if eventName == "" {
		panic("audit: missing event name")
	}
	return auditLogger().
		WithFields(logger.Data).
		WithField("log", "audit").
		WithField("actor", info.Actor).
		WithField("operation", info.Operation).
		WithField("event", eventName)
}

var auditLoggerInstance *logrus.Logger
var initAuditLoggerOnce = &sync.Once{}

// auditLogger returns the logger audit events are written to.
// It shares output and formatting with the standard logger, but always logs and prints level "audit".
func auditLogger() *logrus.Logger {
	initAuditLoggerOnce.Do(func() {
		auditLoggerInstance = logrus.New()
		auditLoggerInstance.SetOutput(logrus.StandardLogger().Out)
		auditLoggerInstance.SetFormatter(&auditFormatter{formatter: logrus.StandardLogger().Formatter})
		auditLoggerInstance.SetLevel(logrus.InfoLevel)
	})
	return auditLoggerInstance
}

// auditFormatter replaces the level of formatted entries with "audit", since logrus has no custom levels.
type auditFormatter struct {
	formatter logrus.Formatter
}

func (f *auditFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	formatted, err := f.formatter.Format(entry)
	if err != nil {
		return nil, err
	}
	level := entry.Level.String()
	switch {
	case bytes.Contains(formatted, []byte("level="+level)):
		return bytes.Replace(formatted, []byte("level="+level), []byte("level=audit"), 1), nil
	case bytes.Contains(formatted, []byte(`"level":"`+level+`"`)):
		return bytes.Replace(formatted, []byte(`"level":"`+level+`"`), []byte(`"level":"audit"`), 1), nil
	}
	// colored terminal output prints the level in upper case, truncated to 4 characters
	upper := []byte(strings.ToUpper(level))
	if len(upper) > 4 {
		upper = upper[:4]
	}
	return bytes.Replace(formatted, upper, []byte("AUDIT"), 1), nil
}
