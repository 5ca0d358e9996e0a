package shared

// VersionedRecord is implemented by soft-deletable records that are edited
// by hiding the current row and inserting a successor.
type VersionedRecord interface {
	Entity
	GetVersion() int
	IsHidden() bool
}

// BaseRecord carries the hidden flag and the optimistic version shared by
// persons and invoices.
type BaseRecord struct {
	BaseEntity
	Version int
	Hidden  bool
}

// GetVersion returns the record version used for optimistic locking
func (r *BaseRecord) GetVersion() int {
	return r.Version
}

// IsHidden reports whether the record has been soft-deleted or superseded
func (r *BaseRecord) IsHidden() bool {
	return r.Hidden
}

// MarkHidden flags the record as hidden and bumps its version
func (r *BaseRecord) MarkHidden() {
	if r.Hidden {
		return
	}
	r.Hidden = true
	r.Version++
}

// NewBaseRecord creates a visible record at version 1
func NewBaseRecord() BaseRecord {
	return BaseRecord{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}
