// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"log/slog"

	"github.com/bureau-foundation/hookd/lib/config"
	"github.com/bureau-foundation/hookd/lib/hook"
)

// notificationLog records agent notifications in the daemon log.
type notificationLog struct {
	hook.Base
	logger *slog.Logger
}

func notificationLogFactory() Factory {
	return Factory{
		ID:       "notification-log",
		Events:   []hook.EventType{hook.Notification},
		Priority: 100,
		Tags:     []string{"logging"},
		New: func(base hook.Base, options config.Options, build BuildContext) (hook.Handler, error) {
			// No options; decoding into an empty struct rejects any key.
			if err := options.Decode(&struct{}{}); err != nil {
				return nil, err
			}
			return &notificationLog{Base: base, logger: build.logger()}, nil
		},
	}
}

func (h *notificationLog) Matches(hook.Event) bool { return true }

func (h *notificationLog) Handle(event hook.Event) (hook.PartialResult, error) {
	h.logger.Info("agent notification",
		"message", event.Get("message").String(),
		"title", event.Get("title").String(),
		"session_id", event.Get("session_id").String(),
	)
	return hook.Allowed(), nil
}
