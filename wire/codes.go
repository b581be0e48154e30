// PadOS
// https://github.com/kavionic/pados
//
// Copyright (c) The PadOS Authors.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package wire

// Session codes.
const (
	RegisterApplication Code = iota + 1
	RegisterApplicationReply
	CreateView
	CreateViewReply
	DeleteView
	Sync
	SyncReply
	MessageBundle
)

// View state codes.
const (
	ViewSetFgColor Code = iota + 100
	ViewSetBgColor
	ViewSetEraseColor
	ViewSetPenWidth
	ViewMovePenTo
	ViewSetFrame
	ViewToggleDepth
	ViewSetFocus
	ViewFocusChanged
	ViewFrameChanged
	ViewInvalidate
)

// Drawing codes.
const (
	ViewDrawLine1 Code = iota + 200 // pen-relative
	ViewDrawLine2                   // absolute
	ViewFillRect
	ViewFillCircle
	ViewDrawString
	ViewCopyRect
	ViewScrollBy
	ViewDebugDraw
)

// Input codes.
const (
	HandleMouseDown Code = iota + 300
	HandleMouseUp
	HandleMouseMove
	PaintView
)
