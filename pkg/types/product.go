package types

// Product is one line of a registry table. PID and Type are empty unless
// the product is bound to a catalog entry; a bound product takes Vendor and
// Price from that entry and OwnerID names the entry's seller.
type Product struct {
	ID          string  `json:"id"`
	PID         string  `json:"pid,omitempty"`
	Type        string  `json:"type,omitempty"`
	Name        string  `json:"name"`
	Vendor      string  `json:"vendor"`
	OwnerID     string  `json:"uid,omitempty"`
	PlannedCost float64 `json:"plannedCost"`
	Price       float64 `json:"price"`
	PaidBy      string  `json:"paidBy"`
	Note        string  `json:"note"`
	Link        string  `json:"link"`
	Group       string  `json:"group"`
	IsFinal     bool    `json:"isFinal"`
}

// Bound reports whether the product references a catalog entry.
func (p Product) Bound() bool {
	return p.PID != ""
}

// FinalState is the target of a final/optional toggle.
type FinalState string

// Final states.
const (
	StateFinal    FinalState = "final"
	StateOptional FinalState = "optional"
)

// Valid reports whether s is one of the known final states.
func (s FinalState) Valid() bool {
	return s == StateFinal || s == StateOptional
}

// Is reports whether the product already sits in state s.
func (s FinalState) Is(p Product) bool {
	return (s == StateFinal) == p.IsFinal
}

// OtherGroup is the synthetic group holding products with an empty group.
const OtherGroup = "Other"

// Actor identifies who is performing a mutation. The zero value is an
// anonymous, unauthenticated visitor.
type Actor struct {
	UserID string
}

// Authenticated reports whether the actor is signed in.
func (a Actor) Authenticated() bool {
	return a.UserID != ""
}
