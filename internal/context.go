package internal

import (
	"time"

	"github.com/jointwt/logingate"
	"github.com/jointwt/logingate/internal/auth"
	"github.com/jointwt/logingate/internal/gate"
	"github.com/jointwt/logingate/internal/members"
)

// memberArg is the name handlers bind the logged-in member to
const memberArg = "member"

// SessionInfo describes the current session
type SessionInfo struct {
	Token          string        `json:"token"`
	LoginID        string        `json:"login_id"`
	Name           string        `json:"name"`
	CreatedAt      time.Time     `json:"created_at"`
	LastAccessedAt time.Time     `json:"last_accessed_at"`
	Policy         string        `json:"policy"`
	TTL            time.Duration `json:"ttl"`
}

// Context is the view model passed to templates
type Context struct {
	InstanceName    string
	SoftwareVersion string
	BaseURL         string
	LoginPath       string
	RequestID       string

	Title string

	Authenticated bool
	Member        *members.Member

	Error   bool
	Message string

	LoginID     string
	RedirectURL string

	Members []*members.Member
	Session *SessionInfo
}

// NewContext builds a view context for the exchange. The member is taken
// from the exchange's resolved arguments, so handlers that render it must
// bind auth.LoginMember(memberArg).
func NewContext(conf *Config, ex *gate.Exchange) *Context {
	ctx := &Context{
		InstanceName:    conf.Name,
		SoftwareVersion: logingate.FullVersion(),
		BaseURL:         conf.BaseURL,
		LoginPath:       conf.LoginPath,
		RequestID:       ex.RequestID,
	}

	if m, ok := auth.MemberOf(ex.Arg(memberArg)); ok {
		ctx.Authenticated = true
		ctx.Member = m
	}

	return ctx
}
