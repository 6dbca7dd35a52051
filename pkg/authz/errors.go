package authz

import "fmt"

// AuthorizationDenied indicates that Enforce rejected a request. It
// carries enough of the decision to log and surface without another
// lookup.
type AuthorizationDenied struct {
	Action       string // Action that was attempted
	ResourceType string // Target resource type
	PrincipalID  string // Acting principal
	PolicyCode   string // Deciding policy, empty for the default deny
	Reason       string // Why the request was denied
}

// Error implements the error interface.
func (e *AuthorizationDenied) Error() string {
	if e.PolicyCode == "" {
		return fmt.Sprintf("authorization denied [action=%s, resource=%s, principal=%s]: %s",
			e.Action, e.ResourceType, e.PrincipalID, e.Reason)
	}
	return fmt.Sprintf("authorization denied [action=%s, resource=%s, principal=%s, policy=%s]: %s",
		e.Action, e.ResourceType, e.PrincipalID, e.PolicyCode, e.Reason)
}

// NewAuthorizationDenied creates a new AuthorizationDenied from a
// request and the denying decision.
func NewAuthorizationDenied(req *Request, d *Decision) *AuthorizationDenied {
	return &AuthorizationDenied{
		Action:       req.Action,
		ResourceType: req.ResourceType,
		PrincipalID:  req.PrincipalID,
		PolicyCode:   d.PolicyCode,
		Reason:       d.Reason,
	}
}
