// Package badger stores session records in an embedded badger database,
// for single-node deployments that want persistence without a server.
//
// Open builds the database from Config; an empty Dir keeps everything in
// memory. RunGC reclaims value log space in the background. SessionStore
// implements session.Store and session.Pruner.
//
//	db, err := badger.Open(cfg, log)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	go badger.RunGC(ctx, db, cfg.GCInterval, cfg.GCThreshold, log)
//
//	store := badger.NewSessionStore(db, badger.WithKeyPrefix(cfg.KeyPrefix))
package badger
