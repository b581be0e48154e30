// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package compositor

import "github.com/kavionic/pados/wire"

// AppHandle identifies a registered application.
type AppHandle uint32

// Application is one registered client, per spec §3.2's "Application
// record": reply port, incoming port, name, view-root list, message
// buffer. The compositor holds all such records, keyed by AppHandle.
type Application struct {
	Handle  AppHandle
	Name    string
	Reply   *wire.Port // the compositor's per-app reply channel
	Roots   []*View    // top-level views this application owns
	pending wire.Bundle
}

func newApplication(handle AppHandle, name string, reply *wire.Port) *Application {
	return &Application{Handle: handle, Name: name, Reply: reply}
}
