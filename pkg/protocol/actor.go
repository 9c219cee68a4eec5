package protocol

import (
	"strings"
)

// Media types and JSON-LD contexts used by actor documents
const (
	// ActivityJSON is the media type served for actor documents
	ActivityJSON = "application/activity+json"

	// LDJSONActivityStreams is sent as Accept when fetching remote actors
	LDJSONActivityStreams = `application/ld+json; profile="https://www.w3.org/ns/activitystreams"`

	// ContextActivityStreams is the ActivityStreams 2.0 JSON-LD context
	ContextActivityStreams = "https://www.w3.org/ns/activitystreams"

	// ContextSecurity is the W3C security vocabulary carrying publicKey
	ContextSecurity = "https://w3id.org/security/v1"

	// TypePerson is the actor type of locally hosted users
	TypePerson = "Person"

	// MainKeyFragment is appended to an actor URI to form its key id
	MainKeyFragment = "#main-key"
)

// Actor is the subset of an ActivityStreams actor document this server
// produces and consumes
type Actor struct {
	// Context holds the JSON-LD contexts
	Context []string `json:"@context,omitempty"`

	// ID is the actor URI
	ID string `json:"id"`

	// Type is the actor type, "Person" for local users
	Type string `json:"type,omitempty"`

	// PreferredUsername is the short handle shown by peers
	PreferredUsername string `json:"preferredUsername,omitempty"`

	// Inbox is where activities for this actor are delivered
	Inbox string `json:"inbox"`

	// PublicKey is the key peers use to verify this actor's signatures
	PublicKey PublicKey `json:"publicKey"`
}

// PublicKey is the public-key document embedded in an actor
type PublicKey struct {
	// ID is the key id, "{actor_uri}#main-key"
	ID string `json:"id"`

	// Owner is the actor URI
	Owner string `json:"owner"`

	// PublicKeyPEM is a PKIX "PUBLIC KEY" PEM block
	PublicKeyPEM string `json:"publicKeyPem"`
}

// ActorURI returns the URI of the local actor id hosted on domain
func ActorURI(domain, id string) string {
	return "https://" + domain + "/users/" + id
}

// KeyID returns the key id of the actor at actorURI
func KeyID(actorURI string) string {
	return actorURI + MainKeyFragment
}

// InboxURI returns the inbox of the actor at actorURI
func InboxURI(actorURI string) string {
	return actorURI + "/inbox"
}

// LocalActorID reports whether keyID names an actor hosted on domain and
// returns its id. Both the bare actor URI and the "#main-key" form match.
func LocalActorID(domain, keyID string) (string, bool) {
	prefix := "https://" + domain + "/users/"
	rest, ok := strings.CutPrefix(keyID, prefix)
	if !ok {
		return "", false
	}
	rest = strings.TrimSuffix(rest, MainKeyFragment)
	if rest == "" || strings.ContainsAny(rest, "/?#") {
		return "", false
	}
	return rest, true
}

// ActorBuilder helps construct actor documents with a fluent API
type ActorBuilder struct {
	actor *Actor
}

// NewActorBuilder creates a builder for the local actor id on domain with
// the default contexts, type, inbox and key id filled in
func NewActorBuilder(domain, id string) *ActorBuilder {
	uri := ActorURI(domain, id)
	return &ActorBuilder{
		actor: &Actor{
			Context:           []string{ContextActivityStreams, ContextSecurity},
			ID:                uri,
			Type:              TypePerson,
			PreferredUsername: id,
			Inbox:             InboxURI(uri),
			PublicKey: PublicKey{
				ID:    KeyID(uri),
				Owner: uri,
			},
		},
	}
}

// WithPreferredUsername overrides the handle
func (b *ActorBuilder) WithPreferredUsername(name string) *ActorBuilder {
	b.actor.PreferredUsername = name
	return b
}

// WithType overrides the actor type
func (b *ActorBuilder) WithType(t string) *ActorBuilder {
	b.actor.Type = t
	return b
}

// WithPublicKeyPEM sets the PEM of the actor's main key
func (b *ActorBuilder) WithPublicKeyPEM(pem string) *ActorBuilder {
	b.actor.PublicKey.PublicKeyPEM = pem
	return b
}

// WithPublicKey replaces the whole public-key document
func (b *ActorBuilder) WithPublicKey(key PublicKey) *ActorBuilder {
	b.actor.PublicKey = key
	return b
}

// Build returns the constructed actor
func (b *ActorBuilder) Build() *Actor {
	return b.actor
}

// Validate checks the fields needed to verify signatures from this actor
func (a *Actor) Validate() error {
	if a.ID == "" {
		return ErrInvalidActor{"id is required"}
	}
	if a.Inbox == "" {
		return ErrInvalidActor{"inbox is required"}
	}
	return a.PublicKey.Validate()
}

// Validate checks that every field of the key document is present
func (k *PublicKey) Validate() error {
	if k.ID == "" {
		return ErrInvalidActor{"publicKey.id is required"}
	}
	if k.Owner == "" {
		return ErrInvalidActor{"publicKey.owner is required"}
	}
	if k.PublicKeyPEM == "" {
		return ErrInvalidActor{"publicKey.publicKeyPem is required"}
	}
	return nil
}

// ErrInvalidActor is returned when an actor document is incomplete
type ErrInvalidActor struct {
	Message string
}

func (e ErrInvalidActor) Error() string {
	return "invalid actor: " + e.Message
}
