package pxdoc

import (
	"errors"

	"github.com/gogpu/pxdoc/canvas"
	"github.com/gogpu/pxdoc/node"
	"github.com/gogpu/pxdoc/patch"
	"github.com/gogpu/pxdoc/pixel"
	"github.com/gogpu/pxdoc/source"
)

var (
	// ErrNothingToUndo is returned by Undo at the start of history.
	ErrNothingToUndo = errors.New("pxdoc: nothing to undo")

	// ErrNothingToRedo is returned by Redo at the end of history.
	ErrNothingToRedo = errors.New("pxdoc: nothing to redo")
)

// Errors of the sub-packages, re-exported so callers of the Editor can
// match them without importing every package.
var (
	ErrOutOfBounds       = pixel.ErrOutOfBounds
	ErrSizeMismatch      = pixel.ErrSizeMismatch
	ErrInvalidEncoding   = pixel.ErrInvalidEncoding
	ErrInvalidDimensions = pixel.ErrInvalidDimensions
	ErrInvalidRegion     = canvas.ErrInvalidRegion
	ErrEncodingMismatch  = canvas.ErrEncodingMismatch
	ErrNotFound          = node.ErrNotFound
	ErrTargetNotFound    = node.ErrTargetNotFound
	ErrIndexOutOfRange   = node.ErrIndexOutOfRange
	ErrDuplicateID       = node.ErrDuplicateID
	ErrInvalidChild      = node.ErrInvalidChild
	ErrInvalidTarget     = node.ErrInvalidTarget
	ErrMalformed         = node.ErrMalformed
	ErrLocked            = patch.ErrLocked
	ErrUnknownKind       = patch.ErrUnknownKind
	ErrUnknownCodec      = patch.ErrUnknownCodec
	ErrInvalidPatch      = patch.ErrInvalidPatch
	ErrSourceUnavailable = source.ErrSourceUnavailable
	ErrInvalidRange      = source.ErrInvalidRange
)
