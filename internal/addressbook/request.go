package addressbook

import (
	"strings"

	"adminpanel/internal/models"
)

// Request is the JSON body of POST /api/customers/{phone}/addresses.
type Request struct {
	Action       string                `json:"action" binding:"required"`
	Address      *models.PostalAddress `json:"address"`
	OldAddress   *models.PostalAddress `json:"oldAddress"`
	NewAddress   *models.PostalAddress `json:"newAddress"`
	SetAsDefault bool                  `json:"setAsDefault"`
}

// Decode turns the wire request into an Action. Unknown action names and
// missing operands are validation errors.
func (r Request) Decode() (Action, error) {
	switch strings.TrimSpace(r.Action) {
	case "add":
		if r.Address == nil {
			return nil, models.ValidationError{Field: "address", Reason: "is required for add"}
		}
		return Add{Address: *r.Address, SetDefault: r.SetAsDefault}, nil
	case "update":
		if r.OldAddress == nil || r.NewAddress == nil {
			return nil, models.ValidationError{Field: "oldAddress", Reason: "and newAddress are required for update"}
		}
		return Update{Old: *r.OldAddress, New: *r.NewAddress}, nil
	case "remove":
		if r.Address == nil {
			return nil, models.ValidationError{Field: "address", Reason: "is required for remove"}
		}
		return Remove{Address: *r.Address}, nil
	case "setDefault":
		if r.Address == nil {
			return nil, models.ValidationError{Field: "address", Reason: "is required for setDefault"}
		}
		return SetDefault{Address: *r.Address}, nil
	default:
		return nil, models.ValidationError{Field: "action", Reason: "must be one of add, update, remove, setDefault"}
	}
}
