package types

import (
	"encoding/json"
	"fmt"
)

// Accounts is an insertion-ordered collection of tracked accounts keyed by
// handle. Its JSON form is an array of [handle, account] pairs.
type Accounts struct {
	order []string
	byKey map[string]TrackedAccount
}

// NewAccounts returns an empty collection.
func NewAccounts() *Accounts {
	return &Accounts{byKey: make(map[string]TrackedAccount)}
}

// AccountsOf builds a collection from accounts in order.
func AccountsOf(list ...TrackedAccount) *Accounts {
	c := NewAccounts()
	for _, a := range list {
		c.Set(a)
	}
	return c
}

func (c *Accounts) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

func (c *Accounts) Has(handle string) bool {
	if c == nil {
		return false
	}
	_, ok := c.byKey[handle]
	return ok
}

func (c *Accounts) Get(handle string) (TrackedAccount, bool) {
	if c == nil {
		return TrackedAccount{}, false
	}
	a, ok := c.byKey[handle]
	return a, ok
}

// Set inserts or replaces an account. A replaced account keeps its position.
func (c *Accounts) Set(a TrackedAccount) {
	if c.byKey == nil {
		c.byKey = make(map[string]TrackedAccount)
	}
	if _, ok := c.byKey[a.Handle]; !ok {
		c.order = append(c.order, a.Handle)
	}
	c.byKey[a.Handle] = a
}

// Delete removes handle and reports whether it was present.
func (c *Accounts) Delete(handle string) bool {
	if _, ok := c.byKey[handle]; !ok {
		return false
	}
	delete(c.byKey, handle)
	for i, h := range c.order {
		if h == handle {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Handles returns the handles in insertion order.
func (c *Accounts) Handles() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// List returns the accounts in insertion order.
func (c *Accounts) List() []TrackedAccount {
	if c == nil {
		return nil
	}
	out := make([]TrackedAccount, 0, len(c.order))
	for _, h := range c.order {
		out = append(out, c.byKey[h])
	}
	return out
}

// Each calls fn for every account in insertion order until fn returns false.
func (c *Accounts) Each(fn func(TrackedAccount) bool) {
	if c == nil {
		return
	}
	for _, h := range c.order {
		if !fn(c.byKey[h]) {
			return
		}
	}
}

// Filter returns the accounts of one platform in insertion order.
func (c *Accounts) Filter(p Platform) []TrackedAccount {
	var out []TrackedAccount
	c.Each(func(a TrackedAccount) bool {
		if a.Platform == p {
			out = append(out, a)
		}
		return true
	})
	return out
}

// Clone returns a deep copy.
func (c *Accounts) Clone() *Accounts {
	out := NewAccounts()
	for _, a := range c.List() {
		out.Set(a.Clone())
	}
	return out
}

func (c *Accounts) MarshalJSON() ([]byte, error) {
	pairs := make([][2]any, 0, c.Len())
	for _, a := range c.List() {
		pairs = append(pairs, [2]any{a.Handle, a})
	}
	return json.Marshal(pairs)
}

func (c *Accounts) UnmarshalJSON(b []byte) error {
	var pairs []json.RawMessage
	if err := json.Unmarshal(b, &pairs); err != nil {
		return fmt.Errorf("accounts must be an array of [handle, account] pairs: %w", err)
	}
	fresh := NewAccounts()
	for i, raw := range pairs {
		var pair []json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
			return fmt.Errorf("entry %d is not a [handle, account] pair", i)
		}
		var handle string
		if err := json.Unmarshal(pair[0], &handle); err != nil {
			return fmt.Errorf("entry %d: handle: %w", i, err)
		}
		var a TrackedAccount
		if err := json.Unmarshal(pair[1], &a); err != nil {
			return fmt.Errorf("entry %d: account: %w", i, err)
		}
		if a.Handle == "" {
			a.Handle = handle
		}
		a.Handle = NormalizeHandle(a.Handle)
		if a.Handle == "" {
			return fmt.Errorf("entry %d: empty handle", i)
		}
		fresh.Set(a)
	}
	*c = *fresh
	return nil
}

// Stats summarises the collection per platform.
type Stats struct {
	Total      int `json:"totalUsers"`
	Steem      int `json:"steemUsers"`
	Hive       int `json:"hiveUsers"`
	Delegators int `json:"delegators"`
	AtLimit    int `json:"atLimit"`
}

// Stats counts accounts per platform.
func (c *Accounts) Stats() Stats {
	var s Stats
	for _, a := range c.List() {
		s.Total++
		switch a.Platform {
		case PlatformSteem:
			s.Steem++
		case PlatformHive:
			s.Hive++
		}
		if a.IsDelegator {
			s.Delegators++
		}
		if a.LimitReached() {
			s.AtLimit++
		}
	}
	return s
}
