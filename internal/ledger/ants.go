package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/mamadbah2/cryptoants/internal/domain/models"
)

// AntRegistry is the arena of every ant ever minted. Identifiers come from a
// counter that only moves forward; burned ants are kept as tombstones.
type AntRegistry struct {
	authority models.Address

	mu     sync.RWMutex
	ants   map[models.AntID]*models.Ant
	owned  map[models.Address]map[models.AntID]struct{}
	lastID models.AntID
}

// NewAntRegistry creates an empty arena mutated only by authority.
func NewAntRegistry(authority models.Address) *AntRegistry {
	return &AntRegistry{
		authority: authority,
		ants:      make(map[models.AntID]*models.Ant),
		owned:     make(map[models.Address]map[models.AntID]struct{}),
	}
}

// Authority returns the only address allowed to mutate the arena.
func (r *AntRegistry) Authority() models.Address { return r.authority }

// Mint allocates a new live ant owned by to.
func (r *AntRegistry) Mint(caller, to models.Address, at time.Time) (models.AntID, error) {
	if caller != r.authority {
		return 0, ErrNotMinter
	}
	if to == "" {
		return 0, ErrInvalidOwner
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lastID+1 == 0 {
		return 0, ErrSupplyOverflow
	}
	r.lastID++
	id := r.lastID
	r.ants[id] = &models.Ant{
		ID:          id,
		Owner:       to,
		Alive:       true,
		CreatedAt:   at,
		LastLayTime: at,
	}
	r.own(to, id)
	return id, nil
}

// Burn tombstones a live ant and clears its owner.
func (r *AntRegistry) Burn(caller models.Address, id models.AntID) error {
	if caller != r.authority {
		return ErrNotMinter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ant, ok := r.live(id)
	if !ok {
		return ErrAntNotFound
	}
	r.disown(ant.Owner, id)
	ant.Alive = false
	ant.Owner = ""
	return nil
}

// Transfer reassigns a live ant to a new owner.
func (r *AntRegistry) Transfer(caller models.Address, id models.AntID, to models.Address) error {
	if caller != r.authority {
		return ErrNotMinter
	}
	if to == "" {
		return ErrInvalidOwner
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ant, ok := r.live(id)
	if !ok {
		return ErrAntNotFound
	}
	r.disown(ant.Owner, id)
	ant.Owner = to
	r.own(to, id)
	return nil
}

// RecordLay stamps a successful laying event.
func (r *AntRegistry) RecordLay(caller models.Address, id models.AntID, at time.Time) error {
	if caller != r.authority {
		return ErrNotMinter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ant, ok := r.live(id)
	if !ok {
		return ErrAntNotFound
	}
	ant.LastLayTime = at
	ant.HasLaid = true
	return nil
}

// Get returns a copy of the ant record, tombstones included.
func (r *AntRegistry) Get(id models.AntID) (models.Ant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ant, ok := r.ants[id]
	if !ok {
		return models.Ant{}, false
	}
	return *ant, true
}

// BalanceOf counts the live ants held by owner.
func (r *AntRegistry) BalanceOf(owner models.Address) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.owned[owner])
}

// OwnedBy lists the live ants of owner in identifier order.
func (r *AntRegistry) OwnedBy(owner models.Address) []models.Ant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Ant, 0, len(r.owned[owner]))
	for id := range r.owned[owner] {
		out = append(out, *r.ants[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LastID returns the most recently issued identifier, zero if none.
func (r *AntRegistry) LastID() models.AntID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastID
}

// Live counts all living ants.
func (r *AntRegistry) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, set := range r.owned {
		n += len(set)
	}
	return n
}

func (r *AntRegistry) live(id models.AntID) (*models.Ant, bool) {
	ant, ok := r.ants[id]
	if !ok || !ant.Alive {
		return nil, false
	}
	return ant, true
}

func (r *AntRegistry) own(owner models.Address, id models.AntID) {
	set, ok := r.owned[owner]
	if !ok {
		set = make(map[models.AntID]struct{})
		r.owned[owner] = set
	}
	set[id] = struct{}{}
}

func (r *AntRegistry) disown(owner models.Address, id models.AntID) {
	set := r.owned[owner]
	delete(set, id)
	if len(set) == 0 {
		delete(r.owned, owner)
	}
}
