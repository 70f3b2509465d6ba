// Package logger provides zerolog-backed structured logging.
//
// Components ask for a tagged logger and pass fields as maps:
//
//	log := logger.Get("httpclient")
//	log.Info("request sent", logger.Fields("method", "GET", "url", u))
//
// The global logger writes console output to stderr at info level until
// Init or SetGlobalLogger replaces it.
package logger
