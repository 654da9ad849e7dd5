package link

import (
	"errors"
	"fmt"
	"sort"
)

// Registry holds the links of one host by id.
type Registry struct {
	links map[string]*Link
}

func NewRegistry() *Registry {
	return &Registry{links: make(map[string]*Link)}
}

// Add registers l. A second link with the same id is refused until the first
// is closed and removed.
func (r *Registry) Add(l *Link) error {
	if _, ok := r.links[l.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrLinkExists, l.ID())
	}
	r.links[l.ID()] = l
	return nil
}

func (r *Registry) Get(id string) (*Link, bool) {
	l, ok := r.links[id]
	return l, ok
}

// Remove drops a closed link.
func (r *Registry) Remove(id string) error {
	l, ok := r.links[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrLinkNotFound, id)
	}
	if !l.Closed() {
		return fmt.Errorf("%w: %s", ErrLinkNotClosed, id)
	}
	delete(r.links, id)
	return nil
}

func (r *Registry) Len() int { return len(r.links) }

// Each calls fn for every link in id order.
func (r *Registry) Each(fn func(*Link)) {
	ids := make([]string, 0, len(r.links))
	for id := range r.links {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fn(r.links[id])
	}
}

// CloseAll closes every link. Links stay registered.
func (r *Registry) CloseAll() error {
	var errs []error
	r.Each(func(l *Link) {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", l.ID(), err))
		}
	})
	return errors.Join(errs...)
}
