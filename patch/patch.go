// Package patch defines the closed set of document mutations and the
// engine that applies them.
//
// Every patch names its target node by identity and carries the data needed
// to apply it. Applying a patch returns its inverse, built from the state
// captured just before the mutation; applying the inverse restores the
// tree. Patches are plain values: Apply never modifies a patch, and nodes,
// canvases or stencils a patch carries are copied before they enter the
// tree.
//
// # Example
//
//	inv, err := patch.Apply(tree, patch.Rename{ID: layerID, Name: "Shadows"})
//	if err != nil {
//	    return err
//	}
//	_, _ = patch.Apply(tree, inv) // undo
//
// Patches serialize through codecs registered by name, following the
// database/sql driver pattern; "json" and "yaml" are built in.
package patch

import (
	"errors"

	"github.com/google/uuid"

	"github.com/gogpu/pxdoc/canvas"
	"github.com/gogpu/pxdoc/geom"
	"github.com/gogpu/pxdoc/node"
	"github.com/gogpu/pxdoc/pixel"
)

var (
	// ErrLocked is returned when a data patch targets a locked layer or group.
	ErrLocked = errors.New("patch: target is locked")

	// ErrUnknownKind is returned when decoding an unrecognized patch kind.
	ErrUnknownKind = errors.New("patch: unknown kind")

	// ErrUnknownCodec is returned by LookupCodec for unregistered names.
	ErrUnknownCodec = errors.New("patch: unknown codec")

	// ErrInvalidPatch is returned when a patch carries unusable data, such
	// as a nil child or an unknown blend mode.
	ErrInvalidPatch = errors.New("patch: invalid patch")
)

// Kind identifies the variant of a Patch.
type Kind uint8

const (
	// Structure
	KindAddChild    Kind = iota // Insert a child into a group
	KindMoveChild               // Reorder a child within its group
	KindRemoveChild             // Detach a child from its group

	// Attributes
	KindRename         // Replace the display name
	KindTranslate      // Replace the position
	KindSetVisibility  // Show or hide a group or layer
	KindSetLock        // Lock or unlock a group or layer
	KindSetFold        // Fold or unfold a group
	KindSetNoteContent // Replace the text of a note
	KindSetBlend       // Replace layer blend mode and opacity

	// Pixel data
	KindCrop         // Re-window canvases
	KindResize       // Resample canvases
	KindApplyStencil // Composite a stencil onto a canvas

	// Restoration
	KindRestoreCanvas // Replace a layer wholesale
	KindRestoreGroup  // Restore a group and apply nested restores

	kindCount
)

var kindNames = [kindCount]string{
	KindAddChild:       "AddChild",
	KindMoveChild:      "MoveChild",
	KindRemoveChild:    "RemoveChild",
	KindRename:         "Rename",
	KindTranslate:      "Translate",
	KindSetVisibility:  "SetVisibility",
	KindSetLock:        "SetLock",
	KindSetFold:        "SetFold",
	KindSetNoteContent: "SetNoteContent",
	KindSetBlend:       "SetBlend",
	KindCrop:           "Crop",
	KindResize:         "Resize",
	KindApplyStencil:   "ApplyStencil",
	KindRestoreCanvas:  "RestoreCanvas",
	KindRestoreGroup:   "RestoreGroup",
}

// kindAliases are accepted when decoding. They name the layer-specific
// variants of older documents, which map onto the general ones.
var kindAliases = map[string]Kind{
	"AddLayer":           KindAddChild,
	"MoveLayer":          KindMoveChild,
	"RemoveLayer":        KindRemoveChild,
	"CropLayer":          KindCrop,
	"ResizeLayer":        KindResize,
	"RestoreLayerCanvas": KindRestoreCanvas,
	"RestoreLayerGroup":  KindRestoreGroup,
}

// String returns the canonical kind name.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "Unknown"
}

// ParseKind returns the kind for a canonical name or a legacy alias.
func ParseKind(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	k, ok := kindAliases[name]
	return k, ok
}

// Patch is implemented by every patch variant. The set is closed.
type Patch interface {
	// Kind returns the variant.
	Kind() Kind
	// Target returns the identity of the node the patch mutates.
	Target() uuid.UUID

	sealed()
}

// AddChild inserts Child at Position among the children of group ID.
// Position may equal the current number of children to append.
type AddChild struct {
	ID       uuid.UUID
	Child    node.Node
	Position int
}

// MoveChild moves child ChildID of group ID to Position.
type MoveChild struct {
	ID       uuid.UUID
	ChildID  uuid.UUID
	Position int
}

// RemoveChild detaches child ChildID from group ID.
type RemoveChild struct {
	ID      uuid.UUID
	ChildID uuid.UUID
}

// Rename sets the display name of node ID.
type Rename struct {
	ID   uuid.UUID
	Name string
}

// Translate sets the position of node ID.
type Translate struct {
	ID       uuid.UUID
	Position geom.Vec2
}

// SetVisibility shows or hides group or layer ID.
type SetVisibility struct {
	ID      uuid.UUID
	Visible bool
}

// SetLock locks or unlocks group or layer ID. Locked layers reject pixel
// data patches.
type SetLock struct {
	ID     uuid.UUID
	Locked bool
}

// SetFold folds or unfolds group ID.
type SetFold struct {
	ID     uuid.UUID
	Folded bool
}

// SetNoteContent replaces the text of note ID.
type SetNoteContent struct {
	ID      uuid.UUID
	Content string
}

// SetBlend sets the compositing mode and opacity of layer ID.
type SetBlend struct {
	ID      uuid.UUID
	Mode    pixel.BlendMode
	Opacity uint8
}

// Crop re-windows the canvas of layer ID, or of every layer below group
// ID, to [Offset, Offset+Size).
type Crop struct {
	ID     uuid.UUID
	Offset geom.Vec2
	Size   geom.Extent
}

// Resize resamples the canvas of layer ID, or of every layer below group
// ID, to Size.
type Resize struct {
	ID       uuid.UUID
	Size     geom.Extent
	Sampling pixel.Sampling
}

// ApplyStencil composites Stencil onto layer ID at Offset. Mode
// canvas.ModeInherit uses the stencil's own mode.
type ApplyStencil struct {
	ID      uuid.UUID
	Stencil *canvas.Stencil
	Offset  geom.Vec2
	Mode    pixel.BlendMode
}

// RestoreCanvas replaces the name, position and canvas of layer ID.
// It is produced as the inverse of destructive layer patches.
type RestoreCanvas struct {
	ID       uuid.UUID
	Name     string
	Position geom.Vec2
	Canvas   *canvas.Canvas
}

// RestoreGroup restores the name and position of group ID, then applies
// Children in order. It is produced as the inverse of group-wide Crop
// and Resize.
type RestoreGroup struct {
	ID       uuid.UUID
	Name     string
	Position geom.Vec2
	Children []Patch
}

func (AddChild) Kind() Kind       { return KindAddChild }
func (MoveChild) Kind() Kind      { return KindMoveChild }
func (RemoveChild) Kind() Kind    { return KindRemoveChild }
func (Rename) Kind() Kind         { return KindRename }
func (Translate) Kind() Kind      { return KindTranslate }
func (SetVisibility) Kind() Kind  { return KindSetVisibility }
func (SetLock) Kind() Kind        { return KindSetLock }
func (SetFold) Kind() Kind        { return KindSetFold }
func (SetNoteContent) Kind() Kind { return KindSetNoteContent }
func (SetBlend) Kind() Kind       { return KindSetBlend }
func (Crop) Kind() Kind           { return KindCrop }
func (Resize) Kind() Kind         { return KindResize }
func (ApplyStencil) Kind() Kind   { return KindApplyStencil }
func (RestoreCanvas) Kind() Kind  { return KindRestoreCanvas }
func (RestoreGroup) Kind() Kind   { return KindRestoreGroup }

func (p AddChild) Target() uuid.UUID       { return p.ID }
func (p MoveChild) Target() uuid.UUID      { return p.ID }
func (p RemoveChild) Target() uuid.UUID    { return p.ID }
func (p Rename) Target() uuid.UUID         { return p.ID }
func (p Translate) Target() uuid.UUID      { return p.ID }
func (p SetVisibility) Target() uuid.UUID  { return p.ID }
func (p SetLock) Target() uuid.UUID        { return p.ID }
func (p SetFold) Target() uuid.UUID        { return p.ID }
func (p SetNoteContent) Target() uuid.UUID { return p.ID }
func (p SetBlend) Target() uuid.UUID       { return p.ID }
func (p Crop) Target() uuid.UUID           { return p.ID }
func (p Resize) Target() uuid.UUID         { return p.ID }
func (p ApplyStencil) Target() uuid.UUID   { return p.ID }
func (p RestoreCanvas) Target() uuid.UUID  { return p.ID }
func (p RestoreGroup) Target() uuid.UUID   { return p.ID }

func (AddChild) sealed()       {}
func (MoveChild) sealed()      {}
func (RemoveChild) sealed()    {}
func (Rename) sealed()         {}
func (Translate) sealed()      {}
func (SetVisibility) sealed()  {}
func (SetLock) sealed()        {}
func (SetFold) sealed()        {}
func (SetNoteContent) sealed() {}
func (SetBlend) sealed()       {}
func (Crop) sealed()           {}
func (Resize) sealed()         {}
func (ApplyStencil) sealed()   {}
func (RestoreCanvas) sealed()  {}
func (RestoreGroup) sealed()   {}
