// Package protocol defines the ActivityPub documents exchanged when
// authenticating deliveries.
//
// # Actor documents
//
// Every local user is published as a Person whose publicKey block lets
// peers verify the user's signatures:
//
//	actor := protocol.NewActorBuilder("example.com", "alice").
//	    WithPublicKeyPEM(pem).
//	    Build()
//
// produces
//
//	{
//	  "@context": ["https://www.w3.org/ns/activitystreams", "https://w3id.org/security/v1"],
//	  "id": "https://example.com/users/alice",
//	  "type": "Person",
//	  "preferredUsername": "alice",
//	  "inbox": "https://example.com/users/alice/inbox",
//	  "publicKey": {
//	    "id": "https://example.com/users/alice#main-key",
//	    "owner": "https://example.com/users/alice",
//	    "publicKeyPem": "-----BEGIN PUBLIC KEY-----\n..."
//	  }
//	}
//
// Remote actors are decoded into the same Actor type; Validate checks the
// fields the verifier depends on.
//
// # Key ids
//
// A key id is the actor URI followed by "#main-key". LocalActorID maps a
// key id back to a local actor id when it points at this server.
//
// # Webfinger
//
// NewWebfinger builds the JRD returned for acct:user@domain lookups.
package protocol
