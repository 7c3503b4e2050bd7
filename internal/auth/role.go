package auth

import (
	"errors"
	"strings"
)

var ErrInvalidRole = errors.New("role must be one of MANAGER, CASHIER, STOCK_CLERK")

// Role is the closed set of user roles.
type Role string

const (
	RoleManager    Role = "MANAGER"
	RoleCashier    Role = "CASHIER"
	RoleStockClerk Role = "STOCK_CLERK"
)

// Roles lists every valid role.
var Roles = []Role{RoleManager, RoleCashier, RoleStockClerk}

var roleAliases = map[string]Role{
	"MANAGER":     RoleManager,
	"GERENTE":     RoleManager,
	"CASHIER":     RoleCashier,
	"CAIXA":       RoleCashier,
	"STOCK_CLERK": RoleStockClerk,
	"ESTOQUISTA":  RoleStockClerk,
}

// ParseRole accepts the canonical names, the legacy pt-BR names and an optional ROLE_ prefix.
func ParseRole(s string) (Role, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.TrimPrefix(key, "ROLE_")
	if r, ok := roleAliases[key]; ok {
		return r, nil
	}
	return "", ErrInvalidRole
}

func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleCashier, RoleStockClerk:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
