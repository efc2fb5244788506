package capability

import "github.com/hairizuan-noorazman/helpdesk-pilot/logger"

// HelpdeskProviders returns the full provider set. Workspace, role and
// department field operations are only offered when a session client is
// supplied.
func HelpdeskProviders(api, session Doer, emailDomain string, log logger.Logger) []Provider {
	providers := []Provider{
		NewRequesters(api, log),
		NewDepartments(api, log),
		NewAgents(api, log),
		NewTickets(api, log),
		NewEmails(emailDomain),
	}
	if session != nil {
		providers = append(providers,
			NewWorkspaces(session, log),
			NewRoles(session, log),
			NewDepartmentFields(session, log),
		)
	}
	return providers
}
