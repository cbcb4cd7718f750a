// Package core provides the foundational domain types, interfaces and
// execution contexts used by AgentHive. It defines the core abstractions for:
//
//   - Messages (immutable routed units of content with typed recipients)
//   - Recipients (tagged union: single agent, broadcast list, USER, ALL)
//   - Directives (the structured result of one agent invocation)
//   - AgentBinding (the single capability interface shared by local and
//     remote agent adapters)
//   - Registry (process-wide catalogue of binding definitions)
//   - TaskTreeNode / TaskPlan (read-only task decompositions consumed by the
//     workspace manager)
//   - InvocationContext (scoped execution view handed to agent logic)
//
// The package intentionally keeps implementation concerns (routing, workspace
// lifecycle, scheduling, concrete adapters) out of scope, exposing small
// interfaces so the workspace, engine and agent packages can evolve without
// cyclic dependencies.
package core
