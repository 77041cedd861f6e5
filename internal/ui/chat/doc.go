// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the chat view of the giasu TUI.

The view is a Bubble Tea model wrapped around a session.Controller. The
controller owns the history and the submit cycle; the view only mirrors
what the controller shows.

# Key Components

## Bridge (bridge.go)

Bridge implements the controller's view bindings by queueing tea.Msgs
(AppendMsg, UpdateMsg, ResetMsg, ClearInputMsg, BusyMsg, ScrollBottomMsg).
The model drains the queue with Bridge.Listen and re-arms it after every
message, so controller calls from background commands never race the
update loop.

## Model (model.go, update.go, view.go)

  - Viewport with one bubble per message
  - Textarea input (Enter sends, Alt+Enter inserts a newline)
  - Spinner counted per request in flight
  - Status bar: subject, mode, solution mode, theme, request stats
  - Help line and help overlay built from KeyMap

## Slash Commands (commands.go)

	/subject <môn>     /mode <trợ lý|giải bài tập>   /solution <full|step_by_step|hint>
	/image <path>      /camera                       /math <latex>
	/clear             /export [path]                /help

# Usage

	m, err := chat.New(chat.Deps{Backend: client, State: state, Config: cfg})
	p := tea.NewProgram(m, tea.WithAltScreen())
	w, _ := config.NewWatcher(path, 0, chat.ConfigReloader(p.Send))
	go w.Run(ctx)
	_, err = p.Run()
*/
package chat
