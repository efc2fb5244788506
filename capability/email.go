package capability

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// DefaultEmailDomain is a throwaway mailbox provider.
const DefaultEmailDomain = "yopmail.com"

// Emails generates unique test addresses.
type Emails struct {
	domain string
	now    func() time.Time
}

// NewEmails creates the email utility provider. An empty domain uses
// DefaultEmailDomain.
func NewEmails(domain string) *Emails {
	if domain == "" {
		domain = DefaultEmailDomain
	}
	return &Emails{domain: domain, now: time.Now}
}

func (p *Emails) Operations() []Operation {
	return []Operation{{
		Tool: mcp.NewTool("generateOrCreateOrNewOrRandomEmail",
			mcp.WithDescription("Generate a unique email address for a new user"),
		),
		Handler: func(context.Context, Args) (interface{}, error) {
			return p.Generate(), nil
		},
	}}
}

// Generate returns testuser_<yyyyMMdd_HHmmss>@<domain>.
func (p *Emails) Generate() string {
	return fmt.Sprintf("testuser_%s@%s", p.now().Format("20060102_150405"), p.domain)
}
