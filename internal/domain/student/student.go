// Package student holds the student identity model.
package student

// Student is a CRM student. Identity is ID; Name is display-only and may be
// empty in some data-source responses.
type Student struct {
	ID   string
	Name string
}
