/*
Package log implements the chat-app logging framework on top of seelog.

Errors are logged once, as early as possible: when a call into an external
package produces an error it is wrapped at the call site with log.Error(),
and errors we create ourselves are created with log.Error[f]() or, before a
panic, log.Critical[f](). The returned error is the logged one, so both
logging and propagation happen in a single expression.

Key material and passwords must never be passed to any function in this
package, not even at trace level.
*/
package log
