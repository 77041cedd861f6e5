// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives one tutoring conversation.
//
// The Controller owns the submit/response cycle: it appends the user's turn,
// issues exactly one backend request, formats the reply and appends it (or an
// error-class message). Everything it needs is passed in explicitly: a State
// holding history and preferences, a Backend, and a Bindings struct with the
// view callbacks. There are no package-level globals, so several controllers
// can run side by side.
//
// # Key Types
//
//   - Controller: Submit, ClearHistory, preference operations
//   - State: History, Preferences, subject and mode of one session
//   - Bindings: MessageView, InputView, BusyIndicator, Scroller
//   - Backend: The subset of tutor.Client the controller calls
//
// # Usage
//
//	ctl, err := session.New(session.Config{
//	    Backend:  client,
//	    State:    session.NewState(prefs),
//	    Bindings: bindings,
//	    Welcome:  cfg.Tutor.WelcomeMessage,
//	})
//	if err != nil {
//	    return err // bindings incomplete
//	}
//	res, err := ctl.Submit(ctx, text, nil, session.Options{})
package session
