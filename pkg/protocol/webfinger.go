package protocol

import (
	"fmt"
	"strings"
)

// JRDJSON is the media type of webfinger responses
const JRDJSON = "application/jrd+json"

// RelSelf links a webfinger subject to its actor document
const RelSelf = "self"

// Webfinger is a JSON Resource Descriptor (RFC 7033)
type Webfinger struct {
	Subject string          `json:"subject"`
	Aliases []string        `json:"aliases,omitempty"`
	Links   []WebfingerLink `json:"links"`
}

// WebfingerLink is one link of a JRD
type WebfingerLink struct {
	Rel  string `json:"rel"`
	Type string `json:"type,omitempty"`
	Href string `json:"href,omitempty"`
}

// ParseAcct splits "acct:user@domain" into its parts
func ParseAcct(resource string) (user, domain string, err error) {
	rest, ok := strings.CutPrefix(resource, "acct:")
	if !ok {
		return "", "", fmt.Errorf("resource %q is not an acct URI", resource)
	}
	user, domain, ok = strings.Cut(rest, "@")
	if !ok || user == "" || domain == "" {
		return "", "", fmt.Errorf("resource %q is not of the form acct:user@domain", resource)
	}
	return user, domain, nil
}

// NewWebfinger describes the local actor id on domain
func NewWebfinger(domain, id string) *Webfinger {
	uri := ActorURI(domain, id)
	return &Webfinger{
		Subject: "acct:" + id + "@" + domain,
		Aliases: []string{
			"https://" + domain + "/@" + id,
			uri,
		},
		Links: []WebfingerLink{
			{Rel: RelSelf, Type: ActivityJSON, Href: uri},
		},
	}
}
