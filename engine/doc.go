// Package engine implements the turn-driving scheduler for AgentHive
// workspaces. Per workspace it maintains a pending-delivery queue seeded from
// unconsumed transcript entries, repeatedly pops the oldest delivery, invokes
// the addressed agent binding and applies the returned directive via the
// workspace router, enforcing turn and cycle budgets at turn boundaries.
//
// Workspaces execute their turns strictly sequentially with respect to their
// own transcript; independent workspaces are driven concurrently by the
// fleet-wide scheduler (RunAll) without letting one workspace's failure abort
// its siblings.
package engine
