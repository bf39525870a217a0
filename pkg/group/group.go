// Package group manages user-defined node groups: named, colored labels that
// nodes can carry any number of.
//
// A [Registry] owns the groups. It loads them once from a [Store] when it is
// created and writes the full set back after every mutation. Mutations are
// serialized, and a failed write leaves the registry unchanged.
//
// Store implementations:
//   - [MemoryStore]: in-process, for tests and ephemeral servers
//   - [FileStore]: a JSON file, for the CLI
//   - redisstore.Store: a single Redis key, for shared deployments
//   - mongostore.Store: one document per group in a MongoDB collection
//
// # Events
//
// Interested parties call [Registry.Subscribe]. Every successful mutation
// emits [EventChanged]; a delete first emits [EventDeleted] carrying the
// removed ID so that state referring to it (a filter, a selection) can be
// cleaned up.
//
// # Membership
//
// Node-to-group membership lives on the nodes (NodeData.GroupIDs). The
// registry only resolves it: [Registry.ResolveMembership] maps a node's group
// IDs to groups and [Registry.Members] lists the nodes of a group.
package group

import (
	"context"
	"time"
)

// Group is a named, colored label.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Update lists the fields to change. Nil fields are left as they are.
type Update struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
}

// EventKind identifies a registry notification.
type EventKind string

const (
	// EventChanged follows every successful create, update or delete.
	EventChanged EventKind = "changed"
	// EventDeleted precedes the EventChanged of a delete.
	EventDeleted EventKind = "deleted"
)

// Event is delivered to subscribers after a mutation has been persisted.
type Event struct {
	Kind EventKind
	// GroupID is the group that was created, updated or deleted.
	GroupID string
}

// Store persists the full set of groups.
type Store interface {
	// Load returns every stored group. An empty store returns no groups and
	// no error.
	Load(ctx context.Context) ([]Group, error)

	// Save replaces the stored set with groups.
	Save(ctx context.Context, groups []Group) error

	// Close releases resources held by the store.
	Close() error
}
