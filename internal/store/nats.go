package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/voicetask/internal/logging"
	"github.com/fyrsmithlabs/voicetask/internal/sanitize"
	"github.com/fyrsmithlabs/voicetask/internal/task"
)

// DefaultNATSTimeout bounds a create request when none is configured.
const DefaultNATSTimeout = 5 * time.Second

// responderQueue load-balances creates across responders.
const responderQueue = "voicetask-store"

// createRequest is the wire payload of a create request.
type createRequest struct {
	UserID string     `json:"userId"`
	Draft  task.Draft `json:"draft"`
}

// createReply is the responder's answer. Exactly one field is set.
type createReply struct {
	Record *task.Record `json:"record,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// ConnectNATS dials url with reconnects enabled.
func ConnectNATS(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("voicetask"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// NATSSink forwards drafts to a NATSResponder. Each user gets its own
// subject token under the base subject.
type NATSSink struct {
	nc      *nats.Conn
	base    string
	timeout time.Duration
	ownConn bool
}

// NewNATSSink returns a sink publishing under base. It does not take
// ownership of nc.
func NewNATSSink(nc *nats.Conn, base string, timeout time.Duration) (*NATSSink, error) {
	if nc == nil {
		return nil, errors.New("nats connection is required")
	}
	if err := sanitize.ValidateSubject(base); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultNATSTimeout
	}
	return &NATSSink{nc: nc, base: base, timeout: timeout}, nil
}

// Create sends d to the responder and waits for the stored record.
func (s *NATSSink) Create(ctx context.Context, userID string, d task.Draft) (task.Record, error) {
	if userID == "" {
		return task.Record{}, ErrMissingUser
	}
	data, err := json.Marshal(createRequest{UserID: userID, Draft: d})
	if err != nil {
		return task.Record{}, fmt.Errorf("marshal create request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	subject := sanitize.Subject(s.base, userID)
	msg, err := s.nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		return task.Record{}, fmt.Errorf("request %s: %w", subject, err)
	}

	var reply createReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return task.Record{}, fmt.Errorf("decode create reply: %w", err)
	}
	if reply.Error != "" {
		return task.Record{}, fmt.Errorf("%w: %s", ErrRemote, reply.Error)
	}
	if reply.Record == nil {
		return task.Record{}, fmt.Errorf("%w: empty reply", ErrRemote)
	}
	return *reply.Record, nil
}

// Close drains the connection when the sink owns it.
func (s *NATSSink) Close() error {
	if s.ownConn {
		return s.nc.Drain()
	}
	return nil
}

// NATSResponder serves create requests from NATSSink instances by writing
// them to a backing store.
type NATSResponder struct {
	store  task.Store
	logger *logging.Logger
	sub    *nats.Subscription
}

// ServeNATS subscribes to base.* on nc and writes incoming drafts to st.
func ServeNATS(nc *nats.Conn, base string, st task.Store, logger *logging.Logger) (*NATSResponder, error) {
	if err := sanitize.ValidateSubject(base); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &NATSResponder{store: st, logger: logger.Named("nats-responder")}

	sub, err := nc.QueueSubscribe(base+".*", responderQueue, r.handle)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s.*: %w", base, err)
	}
	if err := nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("flush subscription: %w", err)
	}
	r.sub = sub
	return r, nil
}

func (r *NATSResponder) handle(msg *nats.Msg) {
	ctx := context.Background()

	var req createRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		r.respond(ctx, msg, createReply{Error: "malformed request"})
		return
	}
	// The subject token must belong to the user in the payload.
	if req.UserID == "" || msg.Subject != sanitize.Subject(subjectBase(msg.Subject), req.UserID) {
		r.respond(ctx, msg, createReply{Error: "subject does not match user"})
		return
	}

	rec, err := r.store.Create(ctx, req.UserID, req.Draft)
	if err != nil {
		r.logger.Error(ctx, "failed to store task", zap.String("subject", msg.Subject), zap.Error(err))
		r.respond(ctx, msg, createReply{Error: err.Error()})
		return
	}
	r.logger.Debug(ctx, "stored task", zap.String("task_id", rec.ID))
	r.respond(ctx, msg, createReply{Record: &rec})
}

func (r *NATSResponder) respond(ctx context.Context, msg *nats.Msg, reply createReply) {
	data, err := json.Marshal(reply)
	if err != nil {
		r.logger.Error(ctx, "failed to marshal reply", zap.Error(err))
		return
	}
	if err := msg.Respond(data); err != nil {
		r.logger.Warn(ctx, "failed to send reply", zap.Error(err))
	}
}

// Close stops receiving requests.
func (r *NATSResponder) Close() error {
	return r.sub.Unsubscribe()
}

func subjectBase(subject string) string {
	for i := len(subject) - 1; i >= 0; i-- {
		if subject[i] == '.' {
			return subject[:i]
		}
	}
	return ""
}
