// Package perrors collects the error types shared across peaceform's core
// packages. Keeping them in one leaf package avoids import cycles between
// resources, params, storage and workspace, which all need to construct and
// recognise each other's failure kinds.
package perrors

import "fmt"

// BorrowFail is returned by resources.Map when the aliasing discipline of
// the resource map is violated.
type BorrowFail struct {
	TypeName string
	Kind     BorrowFailKind
}

type BorrowFailKind int

const (
	BorrowValueNotFound BorrowFailKind = iota
	BorrowConflictImm
	BorrowConflictMut
)

func (e *BorrowFail) Error() string {
	switch e.Kind {
	case BorrowValueNotFound:
		return fmt.Sprintf("no value of type %s in resource map", e.TypeName)
	case BorrowConflictImm:
		return fmt.Sprintf("type %s is already exclusively borrowed", e.TypeName)
	case BorrowConflictMut:
		return fmt.Sprintf("type %s is already borrowed, cannot borrow mutably", e.TypeName)
	default:
		return fmt.Sprintf("borrow failure for type %s", e.TypeName)
	}
}

// ValueResolutionCtx threads (ItemID, Params type name, field path) into
// every ParamsResolveError so a failure is always traceable to a specific
// item and field.
type ValueResolutionCtx struct {
	ItemID     string
	ParamsType string
	FieldPath  string
}

func (c ValueResolutionCtx) String() string {
	return fmt.Sprintf("item %q, params %s, field %s", c.ItemID, c.ParamsType, c.FieldPath)
}

// ParamsResolveErrorKind enumerates the field-resolution failure kinds of
// resolution table.
type ParamsResolveErrorKind int

const (
	ResolveFrom ParamsResolveErrorKind = iota
	ResolveFromBorrowConflict
	ResolveFromMap
	ResolveInMemoryNoResource
)

type ParamsResolveError struct {
	Kind    ParamsResolveErrorKind
	Ctx     ValueResolutionCtx
	ArgType string
	Cause   error
}

func (e *ParamsResolveError) Error() string {
	switch e.Kind {
	case ResolveFrom:
		return fmt.Sprintf("%s: no resource of the field's type is present", e.Ctx)
	case ResolveFromBorrowConflict:
		return fmt.Sprintf("%s: resource already borrowed: %v", e.Ctx, e.Cause)
	case ResolveFromMap:
		return fmt.Sprintf("%s: mapping function argument of type %s unresolvable", e.Ctx, e.ArgType)
	case ResolveInMemoryNoResource:
		return fmt.Sprintf("%s: in-memory resource absent", e.Ctx)
	default:
		return fmt.Sprintf("%s: resolution failed", e.Ctx)
	}
}

func (e *ParamsResolveError) Unwrap() error { return e.Cause }

// ParamsSpecsMismatchCategory enumerates the four categories aggregated by
// ParamsSpecsMismatch.
type ParamsSpecsMismatchCategory int

const (
	MismatchNoParams ParamsSpecsMismatchCategory = iota
	MismatchProvidedForDroppedItem
	MismatchStoredForDroppedItem
	MismatchSpecUnusable
)

type ParamsSpecsMismatchEntry struct {
	ItemID   string
	Category ParamsSpecsMismatchCategory
	Detail   string
}

// ParamsSpecsMismatch aggregates every mismatch found while merging stored
// and provided params specs.
type ParamsSpecsMismatch struct {
	Entries []ParamsSpecsMismatchEntry
}

func (e *ParamsSpecsMismatch) Error() string {
	return fmt.Sprintf("params specs mismatch: %d item(s) affected", len(e.Entries))
}

func (e *ParamsSpecsMismatch) Add(itemID string, cat ParamsSpecsMismatchCategory, detail string) {
	e.Entries = append(e.Entries, ParamsSpecsMismatchEntry{ItemID: itemID, Category: cat, Detail: detail})
}

func (e *ParamsSpecsMismatch) HasEntries() bool { return len(e.Entries) > 0 }

// StorageError wraps a storage-layer failure with the path it occurred on.
type StorageErrorKind int

const (
	StorageItemNotExists StorageErrorKind = iota
	StorageFileRead
	StorageFileWrite
	StorageB64Decode
	StorageLocalStorageUnavailable
)

type StorageError struct {
	Kind  StorageErrorKind
	Path  string
	Cause error
}

func (e *StorageError) Error() string {
	switch e.Kind {
	case StorageItemNotExists:
		return fmt.Sprintf("storage: %q does not exist", e.Path)
	case StorageFileRead:
		return fmt.Sprintf("storage: reading %q: %v", e.Path, e.Cause)
	case StorageFileWrite:
		return fmt.Sprintf("storage: writing %q: %v", e.Path, e.Cause)
	case StorageB64Decode:
		return fmt.Sprintf("storage: base64 decoding %q: %v", e.Path, e.Cause)
	case StorageLocalStorageUnavailable:
		return "storage: browser local/session storage unavailable"
	default:
		return fmt.Sprintf("storage: error at %q: %v", e.Path, e.Cause)
	}
}

func (e *StorageError) Unwrap() error { return e.Cause }

// SerdeArtefact names the kind of file a SerdeError occurred on.
type SerdeArtefact int

const (
	ArtefactWorkspaceParams SerdeArtefact = iota
	ArtefactProfileParams
	ArtefactFlowParams
	ArtefactParamsSpecs
	ArtefactStates
	ArtefactStateDiffs
)

func (a SerdeArtefact) String() string {
	switch a {
	case ArtefactWorkspaceParams:
		return "workspace_params.yaml"
	case ArtefactProfileParams:
		return "profile_params.yaml"
	case ArtefactFlowParams:
		return "flow_params.yaml"
	case ArtefactParamsSpecs:
		return "params_specs.yaml"
	case ArtefactStates:
		return "states.yaml"
	case ArtefactStateDiffs:
		return "state_diffs.yaml"
	default:
		return "unknown artefact"
	}
}

type SerdeError struct {
	Artefact SerdeArtefact
	Offset   int
	Excerpt  string
	Cause    error
}

func (e *SerdeError) Error() string {
	if e.Excerpt != "" {
		return fmt.Sprintf("serde: %s: %v (at offset %d: %q)", e.Artefact, e.Cause, e.Offset, e.Excerpt)
	}
	return fmt.Sprintf("serde: %s: %v", e.Artefact, e.Cause)
}

func (e *SerdeError) Unwrap() error { return e.Cause }

// WorkspaceErrorKind enumerates the workspace/profile-discovery failure kinds.
type WorkspaceErrorKind int

const (
	WorkspaceFileNotFound WorkspaceErrorKind = iota
	ProfileDirInvalidName
	ItemParamsSpecsFileNotFound
	CurrentDirSet
)

type WorkspaceError struct {
	Kind    WorkspaceErrorKind
	DirName string
	Path    string
	Cause   error
}

func (e *WorkspaceError) Error() string {
	switch e.Kind {
	case WorkspaceFileNotFound:
		return fmt.Sprintf("workspace file not found: %s", e.Path)
	case ProfileDirInvalidName:
		return fmt.Sprintf("profile directory name is invalid: %q", e.DirName)
	case ItemParamsSpecsFileNotFound:
		return fmt.Sprintf("params_specs.yaml not found and none provided for flow %s", e.Path)
	case CurrentDirSet:
		return fmt.Sprintf("could not set current directory to %s: %v", e.Path, e.Cause)
	default:
		return "workspace error"
	}
}

func (e *WorkspaceError) Unwrap() error { return e.Cause }

// Interrupted signals that a command terminated before all blocks ran.
type Interrupted struct {
	AtItemID string
}

func (e *Interrupted) Error() string {
	if e.AtItemID != "" {
		return fmt.Sprintf("interrupted while processing item %q", e.AtItemID)
	}
	return "interrupted"
}

// ErrFrameworkBug signals an invariant violation internal to the engine
// (e.g. a boxed state downcast mismatch) rather than a user or item error.
type ErrFrameworkBug struct {
	Detail string
}

func (e *ErrFrameworkBug) Error() string {
	return fmt.Sprintf("framework bug: %s", e.Detail)
}

// ItemError wraps a user item's own error type so it can travel through the
// generic engine machinery while still being recoverable with errors.As.
type ItemError struct {
	ItemID string
	Cause  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %q: %v", e.ItemID, e.Cause)
}

func (e *ItemError) Unwrap() error { return e.Cause }
