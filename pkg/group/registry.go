package group

import (
	"cmp"
	"context"
	"io"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/pipegraph/pkg/errors"
	"github.com/matzehuels/pipegraph/pkg/graph"
	"github.com/matzehuels/pipegraph/pkg/observability"
)

// Registry holds the groups in memory and writes them to its store after
// every mutation. It is safe for concurrent use; mutations are serialized.
type Registry struct {
	mu     sync.Mutex
	store  Store
	groups map[string]Group

	subMu   sync.Mutex
	subs    []subscriber
	nextSub int

	logger *log.Logger
	rng    *rand.Rand
	now    func() time.Time
	newID  func() string
}

type subscriber struct {
	id int
	fn func(Event)
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRand sets the random source used for colors once the palette is
// exhausted.
func WithRand(rng *rand.Rand) Option {
	return func(r *Registry) {
		if rng != nil {
			r.rng = rng
		}
	}
}

// WithClock sets the function used for CreatedAt and UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator sets the function used for new group IDs. The default
// generates random UUIDs.
func WithIDGenerator(newID func() string) Option {
	return func(r *Registry) {
		if newID != nil {
			r.newID = newID
		}
	}
}

// NewRegistry creates a registry and loads the groups from store once. A nil
// store keeps groups in memory only.
func NewRegistry(ctx context.Context, store Store, opts ...Option) (*Registry, error) {
	if store == nil {
		store = NewMemoryStore()
	}
	seed := uint64(time.Now().UnixNano())
	r := &Registry{
		store:  store,
		groups: make(map[string]Group),
		logger: log.NewWithOptions(io.Discard, log.Options{}),
		rng:    rand.New(rand.NewPCG(seed, seed^0xdeadbeef)),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailure, err, "load groups")
	}
	for _, g := range loaded {
		r.groups[g.ID] = g
	}
	r.logger.Debug("loaded groups", "count", len(loaded))
	return r, nil
}

// Close closes the underlying store.
func (r *Registry) Close() error {
	return r.store.Close()
}

// =============================================================================
// Queries
// =============================================================================

// List returns all groups ordered by creation time, then name.
func (r *Registry) List() []Group {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedLocked()
}

// Get returns the group with the given ID.
func (r *Registry) Get(id string) (Group, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	return g, ok
}

// ValidateName checks whether name (after trimming) could be used by the
// group excludeID, or by a new group when excludeID is empty.
func (r *Registry) ValidateName(name, excludeID string) errors.Validation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return validateName(strings.TrimSpace(name), excludeID, r.groups)
}

// ResolveMembership returns the known groups the node belongs to, in the
// order the node lists them. Unknown group IDs are skipped.
func (r *Registry) ResolveMembership(n graph.Node) []Group {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Group
	for _, id := range n.Groups() {
		if g, ok := r.groups[id]; ok {
			out = append(out, g)
		}
	}
	return out
}

// Members returns the IDs of the nodes of g that belong to group id, in
// input order.
func (r *Registry) Members(g graph.Graph, id string) []string {
	var out []string
	for _, n := range g.Nodes {
		if slices.Contains(n.Groups(), id) {
			out = append(out, n.ID)
		}
	}
	return out
}

// =============================================================================
// Mutations
// =============================================================================

// Create adds a group. The name is trimmed and must be 2-50 characters and
// unique ignoring case. An empty color picks the next palette color.
func (r *Registry) Create(ctx context.Context, name, description, color string) (Group, error) {
	g, err := r.create(ctx, name, description, color)
	observability.Group().OnGroupMutation(ctx, "create", g.ID, err)
	if err != nil {
		return Group{}, err
	}
	r.logger.Info("created group", "id", g.ID, "name", g.Name, "color", g.Color)
	r.emit(Event{Kind: EventChanged, GroupID: g.ID})
	return g, nil
}

func (r *Registry) create(ctx context.Context, name, description, color string) (Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = strings.TrimSpace(name)
	if err := validateName(name, "", r.groups).Err(errors.ErrCodeInvalidGroupName); err != nil {
		return Group{}, err
	}
	if color == "" {
		color = nextColor(r.groups, r.rng)
	} else if err := ValidateColor(color); err != nil {
		return Group{}, err
	}

	now := r.now()
	g := Group{
		ID:          r.newID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Color:       color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.groups[g.ID] = g
	if err := r.persistLocked(ctx); err != nil {
		delete(r.groups, g.ID)
		return Group{}, err
	}
	return g, nil
}

// Update changes the given fields of a group. It returns false and no error
// when the group does not exist.
func (r *Registry) Update(ctx context.Context, id string, u Update) (bool, error) {
	ok, err := r.update(ctx, id, u)
	if !ok && err == nil {
		r.logger.Debug("update of unknown group", "id", id)
		return false, nil
	}
	observability.Group().OnGroupMutation(ctx, "update", id, err)
	if err != nil {
		return false, err
	}
	r.logger.Info("updated group", "id", id)
	r.emit(Event{Kind: EventChanged, GroupID: id})
	return true, nil
}

func (r *Registry) update(ctx context.Context, id string, u Update) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.groups[id]
	if !ok {
		return false, nil
	}
	g := old
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if err := validateName(name, id, r.groups).Err(errors.ErrCodeInvalidGroupName); err != nil {
			return false, err
		}
		g.Name = name
	}
	if u.Description != nil {
		g.Description = strings.TrimSpace(*u.Description)
	}
	if u.Color != nil {
		if err := ValidateColor(*u.Color); err != nil {
			return false, err
		}
		g.Color = *u.Color
	}
	g.UpdatedAt = r.now()

	r.groups[id] = g
	if err := r.persistLocked(ctx); err != nil {
		r.groups[id] = old
		return false, err
	}
	return true, nil
}

// Delete removes a group. It returns false and no error when the group does
// not exist. Nodes are not touched; subscribers to [EventDeleted] can drop
// the membership from a graph with graph.RemoveGroup.
func (r *Registry) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := r.delete(ctx, id)
	if !ok && err == nil {
		r.logger.Debug("delete of unknown group", "id", id)
		return false, nil
	}
	observability.Group().OnGroupMutation(ctx, "delete", id, err)
	if err != nil {
		return false, err
	}
	r.logger.Info("deleted group", "id", id)
	r.emit(Event{Kind: EventDeleted, GroupID: id})
	r.emit(Event{Kind: EventChanged, GroupID: id})
	return true, nil
}

func (r *Registry) delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.groups[id]
	if !ok {
		return false, nil
	}
	delete(r.groups, id)
	if err := r.persistLocked(ctx); err != nil {
		r.groups[id] = old
		return false, err
	}
	return true, nil
}

func (r *Registry) persistLocked(ctx context.Context) error {
	if err := r.store.Save(ctx, r.sortedLocked()); err != nil {
		r.logger.Error("save groups", "err", err)
		return errors.Wrap(errors.ErrCodeStoreFailure, err, "save groups")
	}
	return nil
}

func (r *Registry) sortedLocked() []Group {
	out := make([]Group, 0, len(r.groups))
	for _, g := range r.groups {
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b Group) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// =============================================================================
// Events
// =============================================================================

// Subscribe registers fn to receive events and returns a function that
// removes it. Events are delivered synchronously, in subscription order,
// after the registry lock has been released, so fn may call back into the
// registry.
func (r *Registry) Subscribe(fn func(Event)) (unsubscribe func()) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	id := r.nextSub
	r.nextSub++
	r.subs = append(r.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			r.subMu.Lock()
			defer r.subMu.Unlock()
			r.subs = slices.DeleteFunc(r.subs, func(s subscriber) bool { return s.id == id })
		})
	}
}

func (r *Registry) emit(e Event) {
	r.subMu.Lock()
	subs := slices.Clone(r.subs)
	r.subMu.Unlock()
	for _, s := range subs {
		s.fn(e)
	}
}
