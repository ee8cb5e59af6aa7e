// Package addressbook applies add/update/remove/setDefault actions to a
// customer's saved addresses.
package addressbook

import (
	"errors"
	"fmt"
	"strings"

	"adminpanel/internal/models"
)

const defaultCountry = "India"

var (
	ErrNotFound  = errors.New("address not found")
	ErrDuplicate = errors.New("address already exists")
)

// DuplicateError names the entry an add or update collided with.
type DuplicateError struct {
	Existing models.Address
}

func (e DuplicateError) Error() string {
	return fmt.Sprintf("address already exists: %s", Format(e.Existing.PostalAddress))
}

func (e DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// Action is one of Add, Update, Remove or SetDefault. The unexported method
// keeps the set closed to this package.
type Action interface {
	action() string
}

type Add struct {
	Address    models.PostalAddress
	SetDefault bool
}

type Update struct {
	Old models.PostalAddress
	New models.PostalAddress
}

type Remove struct {
	Address models.PostalAddress
}

type SetDefault struct {
	Address models.PostalAddress
}

func (Add) action() string        { return "add" }
func (Update) action() string     { return "update" }
func (Remove) action() string     { return "remove" }
func (SetDefault) action() string { return "setDefault" }

// Name returns the wire name of an action.
func Name(a Action) string { return a.action() }

// Apply returns a new book with the action applied. The input slice is not
// modified. newID supplies ids for added entries.
func Apply(book []models.Address, a Action, newID func() string) ([]models.Address, error) {
	out := make([]models.Address, len(book))
	copy(out, book)

	switch act := a.(type) {
	case Add:
		addr, err := normalizeValid(act.Address)
		if err != nil {
			return nil, err
		}
		if i := indexOf(out, addr); i >= 0 {
			return nil, DuplicateError{Existing: out[i]}
		}
		if act.SetDefault {
			clearDefault(out)
		}
		return append(out, models.Address{ID: newID(), PostalAddress: addr, IsDefault: act.SetDefault}), nil

	case Update:
		i := indexOf(out, act.Old)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, Format(act.Old))
		}
		addr, err := normalizeValid(act.New)
		if err != nil {
			return nil, err
		}
		if j := indexOf(out, addr); j >= 0 && j != i {
			return nil, DuplicateError{Existing: out[j]}
		}
		out[i].PostalAddress = addr
		return out, nil

	case Remove:
		i := indexOf(out, act.Address)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, Format(act.Address))
		}
		return append(out[:i], out[i+1:]...), nil

	case SetDefault:
		i := indexOf(out, act.Address)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, Format(act.Address))
		}
		clearDefault(out)
		out[i].IsDefault = true
		return out, nil

	default:
		panic(fmt.Sprintf("addressbook: unhandled action %T", a))
	}
}

// Default returns the flagged entry, or nil when the book has none.
func Default(book []models.Address) *models.Address {
	for i := range book {
		if book[i].IsDefault {
			def := book[i]
			return &def
		}
	}
	return nil
}

// Normalize trims every field, collapses inner whitespace and fills the
// country when omitted.
func Normalize(addr models.PostalAddress) models.PostalAddress {
	out := models.PostalAddress{
		Street:  collapse(addr.Street),
		City:    collapse(addr.City),
		State:   collapse(addr.State),
		Zip:     strings.ReplaceAll(collapse(addr.Zip), " ", ""),
		Country: collapse(addr.Country),
	}
	if out.Country == "" {
		out.Country = defaultCountry
	}
	return out
}

// Equal compares addresses case and whitespace insensitively.
func Equal(a, b models.PostalAddress) bool {
	na, nb := Normalize(a), Normalize(b)
	return strings.EqualFold(na.Street, nb.Street) &&
		strings.EqualFold(na.City, nb.City) &&
		strings.EqualFold(na.State, nb.State) &&
		strings.EqualFold(na.Zip, nb.Zip) &&
		strings.EqualFold(na.Country, nb.Country)
}

func Validate(addr models.PostalAddress) error {
	n := Normalize(addr)
	switch {
	case n.Street == "":
		return models.ValidationError{Field: "street", Reason: "is required"}
	case n.City == "":
		return models.ValidationError{Field: "city", Reason: "is required"}
	case n.State == "":
		return models.ValidationError{Field: "state", Reason: "is required"}
	case n.Zip == "":
		return models.ValidationError{Field: "zip", Reason: "is required"}
	}
	return nil
}

func Format(addr models.PostalAddress) string {
	n := Normalize(addr)
	return fmt.Sprintf("%s, %s, %s %s, %s", n.Street, n.City, n.State, n.Zip, n.Country)
}

func normalizeValid(addr models.PostalAddress) (models.PostalAddress, error) {
	if err := Validate(addr); err != nil {
		return models.PostalAddress{}, err
	}
	return Normalize(addr), nil
}

func indexOf(book []models.Address, addr models.PostalAddress) int {
	for i := range book {
		if Equal(book[i].PostalAddress, addr) {
			return i
		}
	}
	return -1
}

func clearDefault(book []models.Address) {
	for i := range book {
		book[i].IsDefault = false
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
