// Package workspace implements the isolated routing domains in which agents
// exchange messages. A Workspace owns an append-only transcript, a roster of
// workspace-scoped agent bindings, per-agent turn counters and a shared-plan
// document. The package provides three collaborating components:
//
//   - Router: validates recipient specifications against the roster and
//     appends transcript entries, exposing scoped history views
//   - Manager: builds workspace trees from task-tree nodes, enforces depth
//     limits, cascades destruction and offers whole-tree introspection
//   - AutoManager: lazily maps (initiator, counterpart, thread) triples to
//     workspaces for ad hoc, address-based conversations
//
// Workspaces are mutated only through Router appends and scheduler turn-count
// increments; everything else is read access guarded by a workspace-scoped
// lock so interleaved writes never corrupt transcript ordering.
package workspace
