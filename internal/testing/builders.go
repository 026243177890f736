package testing

import (
	"time"

	"github.com/imamik/surfspot/internal/workspace"
)

// RecordBuilder provides a fluent interface for constructing workspace
// records. Each method returns a new builder.
type RecordBuilder struct {
	rec workspace.Record
}

// NewRecord starts a record with the given id, a pending status and a
// fixed creation time.
func NewRecord(id string) *RecordBuilder {
	return &RecordBuilder{
		rec: workspace.Record{
			ID:      id,
			Status:  "pending",
			Created: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

// WithName sets the workspace name.
func (b *RecordBuilder) WithName(name string) *RecordBuilder {
	next := *b
	next.rec.Name = name
	return &next
}

// WithAddress sets the address and marks the record running.
func (b *RecordBuilder) WithAddress(addr string) *RecordBuilder {
	next := *b
	next.rec.Address = addr
	next.rec.Status = "running"
	return &next
}

// WithFQDN sets the FQDN.
func (b *RecordBuilder) WithFQDN(fqdn string) *RecordBuilder {
	next := *b
	next.rec.FQDN = fqdn
	return &next
}

// Build returns a copy of the record.
func (b *RecordBuilder) Build() *workspace.Record {
	rec := b.rec
	return &rec
}
