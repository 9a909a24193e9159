package service

import (
	"context"
	"sync"
	"time"

	"userconsole/internal/logger"
	"userconsole/internal/session"
)

// Registry keeps one UsersData controller per browser session.
type Registry struct {
	api    UsersAPI
	store  session.Store
	log    *logger.Logger
	errTTL time.Duration
	now    func() time.Time

	mu    sync.Mutex
	items map[string]*UsersData
}

func NewRegistry(api UsersAPI, store session.Store, log *logger.Logger, errTTL time.Duration) *Registry {
	return &Registry{
		api:    api,
		store:  store,
		log:    log,
		errTTL: errTTL,
		now:    time.Now,
		items:  make(map[string]*UsersData),
	}
}

// Get returns the controller for sid, creating a fresh one when there is none
// or the previous one was closed.
func (r *Registry) Get(sid string) *UsersData {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.items[sid]; ok && !d.Closed() {
		return d
	}
	d := newUsersData(r.api, session.New(r.store, sid), r.log, r.errTTL, r.now)
	r.items[sid] = d
	return d
}

// Drop closes and forgets the controller for sid.
func (r *Registry) Drop(sid string) {
	r.mu.Lock()
	d, ok := r.items[sid]
	delete(r.items, sid)
	r.mu.Unlock()
	if ok {
		d.Close()
	}
}

// Len returns the number of live controllers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Run drops controllers idle for longer than idleTTL, checking every tick,
// until ctx is canceled.
func (r *Registry) Run(ctx context.Context, tick, idleTTL time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.sweep(idleTTL); n > 0 && r.log != nil {
				r.log.Infow("controllers_swept", "count", n)
			}
		}
	}
}

func (r *Registry) sweep(idleTTL time.Duration) int {
	cutoff := r.now().Add(-idleTTL)

	r.mu.Lock()
	var stale []*UsersData
	for sid, d := range r.items {
		if d.idleSince().Before(cutoff) {
			stale = append(stale, d)
			delete(r.items, sid)
		}
	}
	r.mu.Unlock()

	for _, d := range stale {
		d.Close()
	}
	return len(stale)
}
