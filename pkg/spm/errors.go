package spm

import (
	"errors"
	"fmt"
)

var ErrUnknownMeshKind = errors.New("unknown mesh kind")

// UnknownMeshKindError describes a slot that was skipped because its kind
// tag is not understood.
type UnknownMeshKindError struct {
	Slot   int
	Kind   Kind
	Offset int    // vertex data position
	Raw    []byte // first bytes at Offset

	// UVCounts are the declared SPV record counts of the slot's sub-meshes.
	UVCounts []uint32
}

func (e *UnknownMeshKindError) Error() string {
	return fmt.Sprintf("slot %d: unknown mesh kind %d at 0x%X (raw % X)", e.Slot, int32(e.Kind), e.Offset, e.Raw)
}

func (e *UnknownMeshKindError) Is(target error) bool { return target == ErrUnknownMeshKind }
