package agent

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/nats-io/nats.go"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/logging"
)

// ServerOptions configures serving local logic to remote hives.
type ServerOptions struct {
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Handler exposes a LogicFunc as an HTTP invocation endpoint, the server side
// of the HTTPTransport contract: it decodes InvocationPayload requests,
// invokes the logic and writes the raw directive reply. Hives elsewhere
// register the endpoint via RemoteSpec.
func Handler(name string, logic LogicFunc, optFns ...func(o *ServerOptions)) http.Handler {
	opts := ServerOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload InvocationPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		raw, err := invokeLogic(r.Context(), name, logic, payload, opts.Logger)
		if err != nil {
			opts.Logger.Error("remote invocation failed", "agent", name, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(raw))
	})
}

// SubscribeNATS exposes a LogicFunc on the role's invoke subject, the server
// side of the NATSTransport contract. The returned subscription must be
// unsubscribed by the caller on shutdown.
func SubscribeNATS(conn *nats.Conn, role string, logic LogicFunc, optFns ...func(o *ServerOptions)) (*nats.Subscription, error) {
	opts := ServerOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return conn.Subscribe(InvokeSubject(role), func(msg *nats.Msg) {
		var payload InvocationPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			opts.Logger.Error("bad invocation payload", "agent", role, "error", err)
			_ = msg.Respond(nil)
			return
		}

		raw, err := invokeLogic(context.Background(), role, logic, payload, opts.Logger)
		if err != nil {
			opts.Logger.Error("remote invocation failed", "agent", role, "error", err)
			_ = msg.Respond(nil)
			return
		}
		_ = msg.Respond([]byte(raw))
	})
}

// invokeLogic rebuilds a scoped invocation context from a wire payload and
// runs the logic. Served logic sees the latest message but no transcript
// history; remote endpoints keep their own state if they need any.
func invokeLogic(ctx context.Context, name string, logic LogicFunc, payload InvocationPayload, logger logging.Logger) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	to, err := core.ParseRecipient(payload.To)
	if err != nil {
		to = core.Single(name)
	}
	latest := core.Message{
		ID:       core.NewID(),
		From:     payload.From,
		To:       to,
		Content:  payload.Content,
		ThreadID: payload.ThreadID,
	}

	ictx := &core.InvocationContext{
		Context:     ctx,
		WorkspaceID: payload.WorkspaceID,
		AgentName:   name,
		Latest:      &latest,
		SharedPlan:  payload.SharedPlan,
		Logger:      logger,
	}
	return logic(ictx)
}
