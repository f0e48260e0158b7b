// Package logging builds the zap loggers the bridge writes to.
//
// The library runs inside a host process, so logs go to stderr unless an
// output path is configured. Production output is JSON; development output
// is colored console text. Each pipeline task logs through its own child
// logger:
//
//	logger, err := logging.New(logging.Config{Level: "debug", OutputPaths: []string{"/tmp/nlp.log"}})
//	logging.For(logger.Logger, "sentiment").Info("model created")
package logging
