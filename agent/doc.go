// Package agent contains the concrete AgentBinding adapters and supporting
// utilities for wiring agent logic into AgentHive workspaces. The package
// focuses on three concerns:
//
//  1. LocalAgent — wraps in-process logic, handling markdown fence stripping,
//     directive JSON parsing, truncated-output repair and malformed-output
//     recovery so schedulers only ever see well-formed directives
//  2. RemoteAgent — serializes the invocation context into a wire request
//     against an external endpoint (HTTP JSON or NATS request/reply) and
//     deserializes the reply under the same recovery rules
//  3. Registration helpers producing core.Definition values so both adapter
//     kinds are interchangeable behind the single Invoke capability
//
// Design principles:
//   - No hidden global state: per-workspace conversational memory lives on
//     the workspace-scoped binding instance and dies with it
//   - Parsing and recovery stay at the adapter boundary; partially parsed
//     state never reaches the scheduler
//   - Scheduler code must not branch on agent origin
package agent
