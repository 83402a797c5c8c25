// Package exec provides the single-threaded executor that serializes
// every mutation of the window manager's state.
//
// The tree, task groups, and screen units have no locks of their own.
// Instead, one Loop owns them: API handlers submit closures with Call,
// asynchronous completions (pause acks, timer firings) re-enter with
// Post, and deadlines are armed with Schedule. Nothing ever runs
// concurrently with anything else, which is what makes the visibility
// and lifecycle algorithms safe to write as straight-line code.
package exec
