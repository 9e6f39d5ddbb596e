// Package logger builds *slog.Logger values with functional options and
// adds attributes pulled from context.Context on every record.
//
// New picks a text or JSON handler and wraps it in a LogHandlerDecorator,
// which runs the registered ContextExtractor callbacks before delegating.
// The helpers in attr.go (SessionID, Store, Error, RequestID and friends)
// keep attribute keys consistent across packages.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(environment.Production, "sessiond"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "session created", logger.SessionID(id))
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed without a nil check.
package logger
