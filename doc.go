// Package venauth is an embeddable authentication and session core. It
// issues opaque tokens on login, tracks any number of concurrently active
// tokens per identity, expires tokens and sessions on a TTL basis, and
// answers role/permission questions against a pluggable grants provider.
// The host owns the transport; venauth owns the token/session state.
//
// A Manager is built once through [Builder.Build] with its collaborators
// injected and is safe for concurrent use. Multiple independent managers
// do not interfere; there is no package-level state.
//
// # Architecture boundaries
//
// venauth is the public surface: [Manager], [Builder], [Config], the
// requirement evaluator, and value types. The store contract and its
// in-memory and Redis backends live in the cache package; token
// generation in the token package; the net/http adapter in middleware.
//
// Extracting a token from a request, binding configuration, and looking
// up an identity's grants are the host's responsibilities, reached only
// through the TokenResolver and GrantsProvider interfaces.
//
// # Consistency contract
//
// Per-key store operations are atomic. Operations spanning the token and
// session namespaces (login's two writes, token removal's read-modify-write
// of the session token list, joint TTL renewal) are not atomic across keys:
// two concurrent logins for the same identity can lose one append to the
// session's token list. Hosts needing stronger guarantees must serialize
// session mutation per identity above the Manager.
package venauth
