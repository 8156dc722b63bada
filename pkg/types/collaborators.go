package types

// Modal kinds presented through ModalPresenter.
const (
	ModalLoginRequired     = "auth/login-required"
	ModalDuplicateRequired = "charts/duplicate-required"
	ModalEditTableName     = "charts/edit-table-name"
	ModalDeleteTable       = "charts/delete-chart-table"
)

// ModalPayload carries the optional message and table of a modal.
type ModalPayload struct {
	Message string
	Table   *Table
}

// ModalPresenter shows a modal dialog. Fire and forget.
type ModalPresenter interface {
	PresentModal(kind string, payload ModalPayload)
}

// Navigator hands a product name over to the global search view.
type Navigator interface {
	TriggerGlobalSearch(term string)
}

// Blocker raises and lowers the application-wide blocking flag.
type Blocker interface {
	Block(on bool)
}

// SearchField selects the product field a list filter matches against.
type SearchField string

// Filterable fields.
const (
	SearchByName   SearchField = "name"
	SearchByVendor SearchField = "vendor"
)

// SearchFilter restricts projected rows to products whose Field contains
// Term, case-insensitively.
type SearchFilter struct {
	Field SearchField
	Term  string
}
