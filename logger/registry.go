package logger

import "sync"

// named holds loggers registered by name; lookups fall back to the global
// logger.
var named sync.Map // string -> *Logger

// Register stores l under name, replacing any previous logger. A nil l
// removes the entry.
func Register(name string, l *Logger) {
	if l == nil {
		named.Delete(name)
		return
	}
	named.Store(name, l)
}

// Get returns the logger registered under name, or the global logger
// tagged with name as its component.
func Get(name string) *Logger {
	if l, ok := named.Load(name); ok {
		return l.(*Logger)
	}
	return GetGlobalLogger().WithComponent(name)
}
