// Package redislock implements filekit.Locker on top of Redis so that
// several processes can share one bucket without racing on the shard index.
//
// A lock is a key set with SET NX PX holding a random token. Release deletes
// the key only if it still holds the caller's token. The TTL bounds how long
// a crashed holder can block others.
package redislock
