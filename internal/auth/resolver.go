package auth

import (
	"net/http"
	"reflect"

	log "github.com/sirupsen/logrus"

	"github.com/jointwt/logingate/internal/gate"
	"github.com/jointwt/logingate/internal/members"
	"github.com/jointwt/logingate/internal/session"
)

// LoginMarker marks a handler argument that wants the logged-in member
const LoginMarker gate.Marker = "login"

var memberType = reflect.TypeOf((*members.Member)(nil))

// LoginMember declares a binding for the logged-in member
func LoginMember(name string) gate.Binding {
	return gate.Bind(name, LoginMarker, (*members.Member)(nil))
}

// PrincipalResolver resolves the member bound to the request's session
type PrincipalResolver struct {
	sm *session.Manager
}

// NewPrincipalResolver ...
func NewPrincipalResolver(sm *session.Manager) *PrincipalResolver {
	return &PrincipalResolver{sm: sm}
}

// Supports ...
func (pr *PrincipalResolver) Supports(b gate.Binding) bool {
	return b.Marker == LoginMarker && b.Type != nil && b.Type.AssignableTo(memberType)
}

// Resolve ...
func (pr *PrincipalResolver) Resolve(ex *gate.Exchange, b gate.Binding) gate.Resolution {
	return pr.ResolveRequest(ex.Request)
}

// ResolveRequest returns Found(*members.Member) if the request carries a live
// session, Absent otherwise. Not being logged in is not an error.
func (pr *PrincipalResolver) ResolveRequest(r *http.Request) gate.Resolution {
	sess, ok := pr.sm.Lookup(r)
	if !ok {
		return gate.Absent
	}

	m, ok := sess.Principal.(*members.Member)
	if !ok {
		log.Warnf("session %s holds unexpected principal %T", sess.Token, sess.Principal)
		return gate.Absent
	}

	return gate.Found(m)
}

// MemberOf unpacks a resolution produced by PrincipalResolver
func MemberOf(res gate.Resolution) (*members.Member, bool) {
	v, ok := res.Value()
	if !ok {
		return nil, false
	}
	m, ok := v.(*members.Member)
	return m, ok
}
