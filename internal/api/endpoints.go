package api

import "net/url"

// Endpoint paths, relative to the configured base URL.
const (
	PathAccounts     = "/accounts"
	PathCreditCards  = "/credit-cards"
	PathDocuments    = "/documents"
	PathUpload       = "/documents/upload"
	PathCompanies    = "/companies"
	PathInvitations  = "/invitations"
	PathLinkToken    = "/plaid/link-token"
	PathLinkExchange = "/plaid/exchange"
	PathLinkSync     = "/plaid/sync"
	PathRegister     = "/auth/register"
	PathVerifyEmail  = "/auth/verify-email"
	PathResendCode   = "/auth/resend-code"
	PathBills        = "/bills"
	PathEvents       = "/events"
)

// Join appends escaped path segments to a base path.
func Join(base string, segments ...string) string {
	p := base
	for _, s := range segments {
		p += "/" + url.PathEscape(s)
	}
	return p
}

// MembersPath is /companies/{companyID}/members[/{memberID}].
func MembersPath(companyID string, memberID ...string) string {
	return Join(Join(PathCompanies, companyID)+"/members", memberID...)
}

// CompanyInvitationsPath is /companies/{companyID}/invitations[/{invitationID}].
func CompanyInvitationsPath(companyID string, invitationID ...string) string {
	return Join(Join(PathCompanies, companyID)+"/invitations", invitationID...)
}

// InvitationActionPath is /invitations/{token}/{action}.
func InvitationActionPath(token, action string) string {
	return Join(PathInvitations, token) + "/" + action
}
