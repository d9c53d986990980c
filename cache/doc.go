// Package cache defines the TTL store the authentication core keeps its
// token and session records in, plus two implementations of it: an
// in-process map for embedding without infrastructure, and a Redis-backed
// store for shared or durable deployments.
//
// Every entry carries an absolute expiry instant or the NeverExpire marker.
// Expiry is enforced on every read: a backend must never return an entry
// whose expiry has passed, regardless of when its background cleanup last
// ran. The sentinel values returned by GetExpire follow the Redis TTL
// convention (-2 for a missing key, -1 for a key without expiry), so remote
// replies map onto the contract without translation.
package cache
