package charts

import (
	"fmt"

	"github.com/mesh-intelligence/giftcharts/pkg/types"
)

// Gate runs the authorization checks that precede every mutating action.
// A failed check presents a modal and mutates nothing.
type Gate struct {
	presenter types.ModalPresenter
}

// NewGate creates a Gate presenting its modals through p.
func NewGate(p types.ModalPresenter) *Gate {
	return &Gate{presenter: p}
}

// CheckAuth returns ErrPermissionDenied, after presenting the login modal,
// when the actor is anonymous. action completes the sentence "sign in to ...".
func (g *Gate) CheckAuth(actor types.Actor, action string) error {
	if actor.Authenticated() {
		return nil
	}
	g.present(types.ModalLoginRequired, types.ModalPayload{
		Message: fmt.Sprintf("You need to sign in to %s.", action),
	})
	return types.ErrPermissionDenied
}

// Check runs CheckAuth and then rejects default tables with
// ErrReadOnlyTable, presenting the duplicate-required modal.
func (g *Gate) Check(actor types.Actor, t types.Table, action string) error {
	if err := g.CheckAuth(actor, action); err != nil {
		return err
	}
	if !t.Default {
		return nil
	}
	cp := t.Clone()
	g.present(types.ModalDuplicateRequired, types.ModalPayload{
		Message: fmt.Sprintf("%q is a shared template. Duplicate it to %s.", t.Name, action),
		Table:   &cp,
	})
	return types.ErrReadOnlyTable
}

func (g *Gate) present(kind string, payload types.ModalPayload) {
	if g.presenter != nil {
		g.presenter.PresentModal(kind, payload)
	}
}
