package auth

// Route is a navigable section of the application.
type Route string

const (
	RouteLogin          Route = "login"
	RouteDashboard      Route = "dashboard"
	RouteUsers          Route = "users"
	RouteSuppliers      Route = "suppliers"
	RouteCategories     Route = "categories"
	RouteDepartments    Route = "departments"
	RouteProducts       Route = "products"
	RouteStockMovements Route = "stock-movements"
	RoutePOS            Route = "pos"
	RouteSales          Route = "sales"
	RouteReports        Route = "reports"
)

// Session is the minimum a navigation decision needs to know about the signed-in user.
type Session struct {
	UserID string
	Role   Role
}

type roleSet map[Role]struct{}

func newRoleSet(roles ...Role) roleSet {
	s := make(roleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Policy maps routes to the roles allowed to open them. Routes absent from the
// policy are open to any authenticated user.
type Policy struct {
	rules map[Route]roleSet
	login Route
	home  Route
}

func NewPolicy(rules map[Route][]Role) *Policy {
	p := &Policy{
		rules: make(map[Route]roleSet, len(rules)),
		login: RouteLogin,
		home:  RouteDashboard,
	}
	for route, roles := range rules {
		p.rules[route] = newRoleSet(roles...)
	}
	return p
}

// DefaultPolicy is the route table of the back-office application.
func DefaultPolicy() *Policy {
	return NewPolicy(map[Route][]Role{
		RouteUsers:          {RoleManager},
		RouteSuppliers:      {RoleManager, RoleStockClerk},
		RouteCategories:     {RoleManager},
		RouteDepartments:    {RoleManager},
		RouteProducts:       {RoleManager, RoleStockClerk},
		RouteStockMovements: {RoleManager, RoleStockClerk},
		RoutePOS:            {RoleCashier},
		RouteSales:          {RoleManager, RoleCashier},
		RouteReports:        {RoleManager},
	})
}

// IsRouteAllowed reports whether role may open route.
func (p *Policy) IsRouteAllowed(route Route, role Role) bool {
	allowed, restricted := p.rules[route]
	if !restricted {
		return true
	}
	_, ok := allowed[role]
	return ok
}

// Resolve returns where navigation to route ends up: the login route without a
// session, the dashboard when the role is not allowed, otherwise route itself.
func (p *Policy) Resolve(session *Session, route Route) Route {
	if session == nil || session.UserID == "" {
		return p.login
	}
	if !p.IsRouteAllowed(route, session.Role) {
		return p.home
	}
	return route
}

// AllowedRoutes lists the restricted routes role may open, for building menus.
func (p *Policy) AllowedRoutes(role Role) []Route {
	var out []Route
	for _, r := range []Route{RouteDashboard, RouteUsers, RouteSuppliers, RouteCategories, RouteDepartments,
		RouteProducts, RouteStockMovements, RoutePOS, RouteSales, RouteReports} {
		if p.IsRouteAllowed(r, role) {
			out = append(out, r)
		}
	}
	return out
}
