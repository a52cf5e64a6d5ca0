package runtime

import (
	"context"
	"log/slog"
	"nextext/contract"
	"nextext/domain"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Registry maps each online user to the ordered list of its live connections.
// A user key exists only while at least one connection is registered under it.
type Registry struct {
	mu              sync.RWMutex
	log             *slog.Logger
	deliveryTimeout time.Duration
	sessions        map[domain.UserID][]contract.Connection // map user -> live connections
	owners          map[string]domain.UserID                // map connection id -> user
}

type RegistryStats struct {
	Users       int `json:"users"`
	Connections int `json:"connections"`
}

// NewRegistry builds an empty registry. Each send performed by SendTo or Broadcast
// is bounded by deliveryTimeout; zero leaves the caller's context as the only bound.
func NewRegistry(log *slog.Logger, deliveryTimeout time.Duration) *Registry {
	return &Registry{
		log:             log,
		deliveryTimeout: deliveryTimeout,
		sessions:        make(map[domain.UserID][]contract.Connection),
		owners:          make(map[string]domain.UserID),
	}
}

// Connect registers a live connection for a user.
// Registering the same connection twice is a no-op, and a connection already owned
// by another user is refused so that no handle ever lives under two keys.
func (r *Registry) Connect(user domain.UserID, conn contract.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.owners[conn.ID()]; ok {
		if owner != user {
			r.log.Warn("Connection already registered for another user",
				"conn_id", conn.ID(), "owner", owner, "user_id", user)
		}
		return
	}
	r.owners[conn.ID()] = user
	r.sessions[user] = append(r.sessions[user], conn)
}

// Disconnect removes a connection if it is registered under user.
// The user entry is deleted once its last connection is gone.
func (r *Registry) Disconnect(user domain.UserID, conn contract.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.owners[conn.ID()]; !ok || owner != user {
		return
	}
	delete(r.owners, conn.ID())

	remaining := lo.Reject(r.sessions[user], func(c contract.Connection, _ int) bool {
		return c.ID() == conn.ID()
	})
	if len(remaining) == 0 {
		delete(r.sessions, user)
		return
	}
	r.sessions[user] = remaining
}

// SendTo delivers msg to every connection of user registered at call time.
// A failing connection is evicted and closed; it never prevents delivery to the others.
// It returns how many connections accepted the message.
func (r *Registry) SendTo(ctx context.Context, user domain.UserID, msg domain.Message) int {
	r.mu.RLock()
	targets := slices.Clone(r.sessions[user])
	r.mu.RUnlock()

	return r.deliver(ctx, targets, msg)
}

// Broadcast delivers msg to every registered connection except those of exclude.
func (r *Registry) Broadcast(ctx context.Context, msg domain.Message, exclude domain.UserID) int {
	r.mu.RLock()
	var targets []contract.Connection
	for user, conns := range r.sessions {
		if user == exclude {
			continue
		}
		targets = append(targets, conns...)
	}
	r.mu.RUnlock()

	return r.deliver(ctx, targets, msg)
}

// ListOnline returns the users holding at least one live connection, in ascending order.
func (r *Registry) ListOnline() []domain.UserID {
	r.mu.RLock()
	users := lo.Keys(r.sessions)
	r.mu.RUnlock()

	slices.Sort(users)
	return users
}

func (r *Registry) ConnectionCount(user domain.UserID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[user])
}

func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RegistryStats{Users: len(r.sessions), Connections: len(r.owners)}
}

// deliver runs outside the lock: a slow connection must not stall Connect or Disconnect.
func (r *Registry) deliver(ctx context.Context, targets []contract.Connection, msg domain.Message) int {
	delivered := 0
	for _, conn := range targets {
		if err := r.send(ctx, conn, msg); err != nil {
			r.log.Warn("Delivery failed, dropping connection",
				"user_id", conn.UserID(), "conn_id", conn.ID(), "message_id", msg.ID, "error", err)
			r.evict(conn)
			continue
		}
		delivered++
	}
	return delivered
}

func (r *Registry) send(ctx context.Context, conn contract.Connection, msg domain.Message) error {
	if r.deliveryTimeout <= 0 {
		return conn.Send(ctx, msg)
	}
	sendCtx, cancel := context.WithTimeout(ctx, r.deliveryTimeout)
	defer cancel()
	return conn.Send(sendCtx, msg)
}

func (r *Registry) evict(conn contract.Connection) {
	r.mu.RLock()
	owner, ok := r.owners[conn.ID()]
	r.mu.RUnlock()
	if ok {
		r.Disconnect(owner, conn)
	}
	if err := conn.Close(); err != nil {
		r.log.Debug("Closing evicted connection failed", "conn_id", conn.ID(), "error", err)
	}
}
