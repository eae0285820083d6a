package domain

import "strings"

// Route is the classifier's decision for an incoming question. Routing
// decisions are ephemeral and never persisted.
type Route string

const (
	RoutePolicy   Route = "POLICY"
	RouteConcept  Route = "CONCEPT"
	RouteEscalate Route = "ESCALATE"
)

// ParseRoute normalizes a raw classifier label into a Route. The second
// return value reports whether the label was one of the three known routes.
func ParseRoute(label string) (Route, bool) {
	switch Route(strings.ToUpper(strings.TrimSpace(label))) {
	case RoutePolicy:
		return RoutePolicy, true
	case RouteConcept:
		return RouteConcept, true
	case RouteEscalate:
		return RouteEscalate, true
	}
	return RouteEscalate, false
}
