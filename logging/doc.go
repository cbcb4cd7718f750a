// Package logging defines the minimal Logger interface consumed across
// AgentHive plus slog-backed implementations. Most packages accept a Logger
// and default to NoOpLogger so logging never becomes a hard dependency.
package logging
