// Package config loads typed configuration structs from environment
// variables with caarlos0/env, reading a .env file through godotenv first.
//
// Load caches one value per struct type, so packages can ask for their
// configuration independently without re-parsing the environment:
//
//	var cfg session.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
// LoadEnv reads additional dotenv files; values already present in the
// process environment are never overwritten. ResetCache drops cached values,
// mainly for tests.
package config
