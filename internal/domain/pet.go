package domain

// Pet is the ownership projection of a pet record. The full record belongs to
// the pet CRUD layer; this core only needs the owner binding at submission
// time.
type Pet struct {
	ID      string
	OwnerID string
}
