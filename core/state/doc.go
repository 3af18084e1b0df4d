// Package state provides a lightweight per-user session store for
// multi-step conversations. It is domain-agnostic: callers choose the
// session type and own its transitions.
package state
