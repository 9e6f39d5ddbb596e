// Package metrics exports session lifecycle and record store metrics to
// Prometheus. Recorder implements session.Recorder.
//
//	reg := prometheus.NewRegistry()
//	manager := session.New(
//	    session.WithStore(store),
//	    session.WithCookieManager(cookies),
//	    session.WithRecorder(metrics.MustNewRecorder(reg)),
//	)
//	router.Handle("/metrics", metrics.Handler(reg))
package metrics
