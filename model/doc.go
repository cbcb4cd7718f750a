// Package model defines the provider‑agnostic abstractions and concrete
// helpers for driving language models inside AgentHive.
//
// Core goals:
//   - Keep request/response shapes minimal and transport independent
//   - Normalize chat input as role/content messages plus instructions
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so higher layers (agent logic, the scheduler) remain decoupled from
// vendor SDKs.
package model
