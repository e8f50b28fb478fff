package storefront

import "sync"

// FavoriteSet is the set of favorited product ids, most recent first
type FavoriteSet struct {
	mu  sync.RWMutex
	ids []string
}

func NewFavoriteSet() *FavoriteSet {
	return &FavoriteSet{}
}

func (f *FavoriteSet) Has(productID string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return indexOf(f.ids, productID) >= 0
}

// Toggle flips productID and reports whether it is now a favorite
func (f *FavoriteSet) Toggle(productID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if i := indexOf(f.ids, productID); i >= 0 {
		f.ids = append(f.ids[:i:i], f.ids[i+1:]...)
		return false
	}
	f.ids = append([]string{productID}, f.ids...)
	return true
}

// Set forces productID's membership
func (f *FavoriteSet) Set(productID string, favorited bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := indexOf(f.ids, productID)
	switch {
	case favorited && i < 0:
		f.ids = append([]string{productID}, f.ids...)
	case !favorited && i >= 0:
		f.ids = append(f.ids[:i:i], f.ids[i+1:]...)
	}
}

// Replace loads the server's list
func (f *FavoriteSet) Replace(ids []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append([]string(nil), ids...)
}

func (f *FavoriteSet) IDs() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.ids...)
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
