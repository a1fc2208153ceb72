// Package webterm serves terminal sessions over HTTP and WebSocket.
//
// Routes:
//
//	GET    /health                       liveness probe
//	GET    /api/sessions                 list sessions
//	POST   /api/sessions                 create a session
//	GET    /api/sessions/{id}            session info
//	DELETE /api/sessions/{id}            close a session
//	GET    /api/sessions/{id}/snapshot   current screen (?format=json|text|ansi)
//	GET    /api/sessions/{id}/ws         live screen and input
//
// The WebSocket sends JSON frames: "snapshot" after every applied batch,
// "event" for title, bell, clipboard and working directory changes, "exit"
// when the shell ends, "selection" in answer to a copy request, and
// "error". Clients send "input", "key", "paste", "mouse", "resize",
// "scroll", "select", "focus" and "ping" frames. Input frames are rate
// limited per connection.
package webterm
