package models

// Actor is the authenticated caller of an engine operation. IsStaff is
// a capability resolved by the external authorization collaborator and
// carried in the auth token; the engine trusts it as-is.
type Actor struct {
	ID      int64 `json:"id"`
	IsStaff bool  `json:"is_staff"`
}
