// Package wm implements the window management core: the container
// tree of displays, task groups, and screen units, the visibility
// resolver that classifies each stack against its occluders, the
// lifecycle orchestrator that drives units between paused and resumed,
// and the bounds resolver that turns requested rectangles into
// resolved configurations.
//
// All state is owned by a single Manager and mutated only on its
// executor loop. Public methods submit work there and wait; timers and
// IPC completions re-enter through the same loop, so every mutation
// observes a consistent tree.
package wm
