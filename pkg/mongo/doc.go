// Package mongo connects to MongoDB with the official v2 driver and stores
// session records in a collection.
//
// New retries the connection until the server answers a ping. Healthcheck
// wraps Ping for readiness probes. SessionStore implements session.Store
// and session.Pruner: each record is one document
//
//	{_id: <session id>, last_access: <date>, data: <binary>, version: <int64>}
//
// Update matches on both _id and version and increments the version in the
// same operation, and $max keeps last_access from moving backwards.
//
// # Usage
//
//	client, err := mongo.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	store := mongo.NewSessionStore(client.Database(cfg.Database).Collection(cfg.SessionCollection))
//	if err := store.EnsureIndexes(ctx); err != nil {
//	    return err
//	}
package mongo
