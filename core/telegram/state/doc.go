// Package state keeps per-user conversation state in memory.
//
// Store is generic over the state type so each bot defines its own closed set
// of states. Nothing is persisted: a restart drops every conversation.
package state
