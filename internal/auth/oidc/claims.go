package oidc

import "strings"

// Claims represents extracted OIDC ID token claims.
type Claims struct {
	Subject      string `json:"sub"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	HostedDomain string `json:"hd"` // Google Workspace domain claim, if any
	Issuer       string `json:"iss"`
}

// EmailAllowed reports whether the claims carry an email under the given
// institution domain. The hosted-domain claim is accepted as an alternative
// signal when the IdP provides it.
func (c Claims) EmailAllowed(domain string) bool {
	if domain == "" {
		return c.Email != ""
	}
	domain = strings.ToLower(domain)
	if strings.EqualFold(c.HostedDomain, domain) {
		return true
	}
	return strings.HasSuffix(strings.ToLower(c.Email), "@"+domain)
}
