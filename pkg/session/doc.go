/*
Package session manages named, concurrently accessible listeners.

Each session owns a keyseq.Listener fed by an in-process keyboard, so remote
clients (HTTP, MCP) can press keys, inspect progress and follow the event
stream of their own attempt without touching real input devices.
*/
package session
