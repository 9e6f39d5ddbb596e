// Package redis connects to Redis with go-redis and stores session records.
//
// The package provides:
//
//   - Connect, which retries the connection using the supplied Config.
//   - Healthcheck, a func(context.Context) error for readiness probes.
//   - SessionStore, a session.Store and session.Pruner. Each record is a
//     hash; a sorted set indexes ids by last access so DeleteIdle never has
//     to SCAN the keyspace. Insert, Update and Touch are Lua scripts, which
//     makes the version check and the write a single atomic step.
//
// Config fields are populated from environment variables via
// github.com/caarlos0/env.
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	store := redis.NewSessionStoreFromConfig(client, cfg)
//	manager := session.New(session.WithStore(store), session.WithCookieManager(cookieMgr))
//
// With SessionTTL set, Redis expires records on its own and the expiry
// slides forward on every access. Index entries of expired records are
// removed by the next DeleteIdle run.
//
// # Errors
//
// Transport failures are wrapped with ErrRedisUnavailable. Missing records,
// duplicates and stale versions map onto the session package errors.
package redis
