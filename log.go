package fasttransport

import (
	golog "github.com/prataprc/golog"
)

// Logger is the logging contract used throughout fasttransport.
// Applications can supply their own implementation to NewTransport;
// absent one, a golog.SystemLog logger is used.
type Logger interface {
	Fatalf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Verbosef(format string, v ...interface{})
	Debugf(format string, v ...interface{})
	Tracef(format string, v ...interface{})
}

// setLogger resolves the Logger a Transport will use: the supplied
// logger if non-nil, else a golog.SystemLog configured from settings'
// log.level.
func setLogger(logger Logger, settings Settings) Logger {
	if logger != nil {
		return logger
	}
	golog.SetLogLevel(settings.str(settLogLevel, "info"))
	return golog.SystemLog("fasttransport")
}

// recoverPanic is deferred at the top of Transport.poll, fasttransport's
// one hot loop, so a bug in packet dispatch is logged rather than
// unwinding out through the caller (ClientRpc.GetReply, ServerRecv).
func recoverPanic(log Logger) {
	if r := recover(); r != nil {
		log.Errorf("panic: %v\n%s", r, golog.StackTrace(r))
	}
}
