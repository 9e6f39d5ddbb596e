// Package requestid attaches a correlation id to every HTTP request.
//
// The middleware reuses a well-formed X-Request-ID header from the client or
// generates a UUIDv4, stores the id in the request context and echoes it in
// the response. LoggerExtractor feeds the id into logger.New so every record
// logged with the request context carries it.
//
//	router.Use(requestid.New())
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
package requestid
