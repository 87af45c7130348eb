// Package crash models a captured crash report as a set of named fields.
package crash

import (
	"fmt"
	"sort"
)

// Kind classifies how a field may be used when reporting.
type Kind string

const (
	// KindText is short text rendered into the issue description.
	KindText Kind = "text"
	// KindAttachment is text uploaded as a separate file.
	KindAttachment Kind = "attachment"
	// KindBinary is never transmitted.
	KindBinary Kind = "binary"
)

// Well-known field names.
const (
	FieldComponent    = "component"
	FieldRelease      = "release"
	FieldArchitecture = "architecture"
	FieldPackage      = "package"
	FieldUUID         = "UUID"
	FieldReproduce    = "howToReproduce"
	FieldComment      = "comment"
)

// RequiredFields must be present to file a new issue.
var RequiredFields = []string{
	FieldComponent,
	FieldRelease,
	FieldArchitecture,
	FieldPackage,
	FieldUUID,
}

// Field is a single crash report entry.
type Field struct {
	Kind    Kind
	Content string
}

// Report maps field names to fields. Callers own it; reporting code only reads.
type Report map[string]Field

// MissingFieldError is returned when a required field is absent.
type MissingFieldError struct {
	Name string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("crash report has no %q field", e.Name)
}

// NotTextError is returned when a required field is not of KindText.
type NotTextError struct {
	Name string
	Kind Kind
}

func (e *NotTextError) Error() string {
	return fmt.Sprintf("crash report field %q is %s, want text", e.Name, e.Kind)
}

// Get returns the content of a field and whether it exists.
func (r Report) Get(name string) (string, bool) {
	f, ok := r[name]
	if !ok {
		return "", false
	}
	return f.Content, true
}

// Require returns the content of a text field. It fails with a
// *MissingFieldError when the field is absent and a *NotTextError when it
// has another kind.
func (r Report) Require(name string) (string, error) {
	f, ok := r[name]
	if !ok {
		return "", &MissingFieldError{Name: name}
	}
	if f.Kind != KindText {
		return "", &NotTextError{Name: name, Kind: f.Kind}
	}
	return f.Content, nil
}

// Component returns the component field.
func (r Report) Component() (string, error) { return r.Require(FieldComponent) }

// UUID returns the content-derived identifier used for deduplication.
func (r Report) UUID() (string, error) { return r.Require(FieldUUID) }

// Validate checks that every required field is present and is text.
func (r Report) Validate() error {
	for _, name := range RequiredFields {
		if _, err := r.Require(name); err != nil {
			return err
		}
	}
	return nil
}

// Names returns field names in lexicographic order.
func (r Report) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NamesOfKind returns the sorted names of fields with the given kind.
func (r Report) NamesOfKind(kind Kind) []string {
	var names []string
	for _, name := range r.Names() {
		if r[name].Kind == kind {
			names = append(names, name)
		}
	}
	return names
}
