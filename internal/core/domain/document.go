package domain

import (
	"fmt"
	"time"
)

// Content holds the body of a document in exactly one encoding.
// TextContent and BinaryContent are mutually exclusive; binary bodies are
// base64-encoded on the wire by the index client.
type Content struct {
	// MIMEType is the content type (e.g., "text/html", "application/pdf").
	MIMEType string

	// TextContent is the plain or markup text body.
	TextContent string

	// BinaryContent is the raw body for non-text documents.
	BinaryContent []byte
}

// Permissions restricts who can see a document in search results.
type Permissions struct {
	// AllowAnonymousAccess makes the document visible to everyone.
	AllowAnonymousAccess bool

	// AllowedUsers lists user emails granted access.
	AllowedUsers []string

	// AllowedGroups lists group names granted access.
	AllowedGroups []string
}

// DocumentRecord is a transformed document ready for bulk indexing.
// It is the canonical output of a caller's Transformer for document
// connectors.
type DocumentRecord struct {
	// ID uniquely identifies the document within the datasource.
	// Must be non-empty and unique within a single upload session.
	ID string

	// Title is the human-readable title.
	Title string

	// Datasource is the connector name this document belongs to.
	// Must match the configured connector name.
	Datasource string

	// ViewURL is where the document can be opened in the source system.
	ViewURL string

	// Body is the document content.
	Body Content

	// AuthorEmail identifies the document author, if known.
	AuthorEmail string

	// CreatedAt is when the document was created in the source system.
	CreatedAt *time.Time

	// UpdatedAt is when the document was last modified in the source system.
	UpdatedAt *time.Time

	// Tags are free-form labels attached to the document.
	Tags []string

	// Permissions restricts visibility. Nil means datasource default.
	Permissions *Permissions
}

// Validate checks the record invariants against the owning datasource.
func (d DocumentRecord) Validate(datasource string) error {
	if d.ID == "" {
		return fmt.Errorf("%w: document record has empty id", ErrInvalidRecord)
	}
	if d.Datasource != datasource {
		return fmt.Errorf("%w: document %q belongs to datasource %q, connector is %q",
			ErrInvalidRecord, d.ID, d.Datasource, datasource)
	}
	return nil
}

// IdentityRecord is a transformed identity (user, employee) ready for bulk
// indexing through the identity endpoint.
type IdentityRecord struct {
	// ID uniquely identifies the identity within the datasource.
	ID string

	// Name is the display name.
	Name string

	// Email is the primary email address.
	Email string

	// Metadata contains source-specific key-value pairs.
	Metadata map[string]any
}

// Validate checks the record invariants.
func (r IdentityRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: identity record has empty id", ErrInvalidRecord)
	}
	return nil
}
