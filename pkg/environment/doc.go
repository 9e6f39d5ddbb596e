// Package environment names the deployment a process runs in and carries
// it through request contexts and log records.
//
//	env, err := environment.Parse(cfg.Env)
//	if err != nil {
//	    return err
//	}
//	router.Use(environment.Middleware(env))
//	log := logger.New(logger.WithContextExtractors(environment.LoggerExtractor()))
package environment
