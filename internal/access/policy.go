// Package access decides, per resource and action, whether a caller may proceed
// and which records the caller may see.
package access

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type Resource string

const (
	Products  Resource = "products"
	Pillows   Resource = "pillows"
	EPESheets Resource = "epe-sheets"
	Orders    Resource = "orders"
	Company   Resource = "company"
	Inquiries Resource = "inquiries"
	Reviews   Resource = "reviews"
	Accounts  Resource = "auth"
)

type Action string

const (
	List          Action = "list"
	Retrieve      Action = "retrieve"
	Create        Action = "create"
	Update        Action = "update"
	PartialUpdate Action = "partial_update"
	Destroy       Action = "destroy"
	// Register and Me only apply to Accounts
	Register Action = "register"
	Me       Action = "me"
)

// Safe reports whether the action only reads
func (a Action) Safe() bool {
	return a == List || a == Retrieve || a == Me
}

type Capability int

const (
	// Anyone no authentication at all
	Anyone Capability = iota
	// AuthenticatedOrReadOnly anonymous callers may only run safe actions
	AuthenticatedOrReadOnly
	Authenticated
	Staff
)

func (c Capability) String() string {
	switch c {
	case Anyone:
		return "anyone"
	case AuthenticatedOrReadOnly:
		return "authenticated-or-read-only"
	case Authenticated:
		return "authenticated"
	case Staff:
		return "staff"
	}
	return fmt.Sprintf("capability(%d)", int(c))
}

var (
	ErrNotAuthenticated = errors.New("authentication credentials were not provided")
	ErrPermissionDenied = errors.New("you do not have permission to perform this action")
	ErrUnknownOperation = errors.New("unknown resource operation")
)

// Principal the caller identity, nil means anonymous
type Principal struct {
	UserID   int64
	Username string
	IsStaff  bool
}

func (p *Principal) Authenticated() bool {
	return p != nil && p.UserID > 0
}

func (p *Principal) Staff() bool {
	return p.Authenticated() && p.IsStaff
}

func (p *Principal) Owns(userID int64) bool {
	return p.Authenticated() && p.UserID == userID
}

func catalogRules() map[Action]Capability {
	return map[Action]Capability{
		List:          AuthenticatedOrReadOnly,
		Retrieve:      AuthenticatedOrReadOnly,
		Create:        Staff,
		Update:        Staff,
		PartialUpdate: Staff,
		Destroy:       Staff,
	}
}

func uniformRules(c Capability) map[Action]Capability {
	return map[Action]Capability{
		List:          c,
		Retrieve:      c,
		Create:        c,
		Update:        c,
		PartialUpdate: c,
		Destroy:       c,
	}
}

var policy = map[Resource]map[Action]Capability{
	Products:  catalogRules(),
	Pillows:   catalogRules(),
	EPESheets: catalogRules(),
	Orders: {
		List:          Authenticated,
		Retrieve:      Authenticated,
		Create:        Authenticated,
		Update:        Staff,
		PartialUpdate: Staff,
		Destroy:       Staff,
	},
	Company: {
		List:          Anyone,
		Retrieve:      Anyone,
		Create:        Staff,
		Update:        Staff,
		PartialUpdate: Staff,
		Destroy:       Staff,
	},
	Inquiries: uniformRules(Anyone),
	Reviews:   uniformRules(Authenticated),
	Accounts: {
		Register: Anyone,
		Me:       Authenticated,
	},
}

// Required returns the capability needed for an operation
func Required(r Resource, a Action) (Capability, error) {
	rules, ok := policy[r]
	if !ok {
		return Staff, ErrUnknownOperation
	}
	c, ok := rules[a]
	if !ok {
		return Staff, ErrUnknownOperation
	}
	return c, nil
}

// Check returns nil when the principal may run the operation.
// Anonymous callers get ErrNotAuthenticated, authenticated callers lacking a role get ErrPermissionDenied.
func Check(p *Principal, r Resource, a Action) error {
	c, err := Required(r, a)
	if err != nil {
		return err
	}
	switch c {
	case Anyone:
		return nil
	case AuthenticatedOrReadOnly:
		if a.Safe() || p.Authenticated() {
			return nil
		}
		return ErrNotAuthenticated
	case Authenticated:
		if p.Authenticated() {
			return nil
		}
		return ErrNotAuthenticated
	case Staff:
		if !p.Authenticated() {
			return ErrNotAuthenticated
		}
		if !p.IsStaff {
			return ErrPermissionDenied
		}
		return nil
	}
	return ErrPermissionDenied
}

// Scope narrows a query to the records the principal may see.
// Staff see every order, everyone else only their own; other resources are not owner scoped.
func Scope(p *Principal, r Resource) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if r != Orders || p.Staff() {
			return db
		}
		if !p.Authenticated() {
			return db.Where("1 = 0")
		}
		return db.Where("user_id = ?", p.UserID)
	}
}

// CanModify reports whether the principal may change a record owned by ownerID.
// Used for reviews, which every authenticated user can read but only the author or staff can change.
func CanModify(p *Principal, ownerID int64) error {
	if !p.Authenticated() {
		return ErrNotAuthenticated
	}
	if p.IsStaff || p.UserID == ownerID {
		return nil
	}
	return ErrPermissionDenied
}
