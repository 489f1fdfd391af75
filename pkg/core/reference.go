// pkg/core/reference.go
package core

import "github.com/google/uuid"

// NoneToken is how an unset reference is written in text form.
const NoneToken = "NONE"

// ReferenceKind tells which namespace a Reference resolves in.
type ReferenceKind uint8

const (
	RefNone ReferenceKind = iota
	RefBody
	RefVessel
)

// Reference is a weak handle to a celestial body or vessel. It is looked up by
// stable id on every use and never holds a live host object.
type Reference struct {
	Kind   ReferenceKind
	Body   string    // body name, set when Kind == RefBody
	Vessel uuid.UUID // vessel id, set when Kind == RefVessel
}

// NoReference returns the null reference.
func NoReference() Reference { return Reference{} }

// BodyReference points at a celestial body by name.
func BodyReference(name string) Reference {
	return Reference{Kind: RefBody, Body: name}
}

// VesselReference points at another vessel by id.
func VesselReference(id uuid.UUID) Reference {
	return Reference{Kind: RefVessel, Vessel: id}
}

// IsNone reports whether the reference is unset.
func (r Reference) IsNone() bool { return r.Kind == RefNone }

// IsVessel reports whether r points at the vessel with the given id.
func (r Reference) IsVessel(id uuid.UUID) bool {
	return r.Kind == RefVessel && r.Vessel == id
}

// IsBody reports whether r points at the named body.
func (r Reference) IsBody(name string) bool {
	return r.Kind == RefBody && r.Body == name
}

// String returns the persisted token: NONE, a body name or a vessel id.
func (r Reference) String() string {
	switch r.Kind {
	case RefBody:
		return r.Body
	case RefVessel:
		return r.Vessel.String()
	default:
		return NoneToken
	}
}
