// Package clientip resolves the originating client address of a request
// served behind reverse proxies.
//
// A Resolver checks the trusted headers in order (CF-Connecting-IP,
// DO-Connecting-IP, X-Forwarded-For, X-Real-IP by default) and falls back to
// RemoteAddr. Only trust headers your proxy overwrites; a client can set any
// of them itself.
//
//	ips := clientip.New()
//	router.Use(ips.Middleware)
//	log := logger.New(logger.WithContextExtractors(clientip.LoggerExtractor()))
package clientip
