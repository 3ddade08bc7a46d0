package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"cur8/internal/logging"
	"cur8/internal/types"
)

// LoadAccounts returns the mirrored accounts, or an empty collection when
// nothing is stored or the stored value cannot be read.
func (s *MirrorStore) LoadAccounts() *types.Accounts {
	raw, ok, err := s.get(KeyAccounts)
	if err != nil {
		logging.StoreWarn("Error loading users from mirror: %v", err)
		return types.NewAccounts()
	}
	if !ok || raw == "" {
		return types.NewAccounts()
	}
	accounts := types.NewAccounts()
	if err := json.Unmarshal([]byte(raw), accounts); err != nil {
		logging.StoreWarn("Error decoding users from mirror: %v", err)
		return types.NewAccounts()
	}
	logging.StoreDebug("loaded %d account(s) from mirror", accounts.Len())
	return accounts
}

// SaveAccounts replaces the mirrored accounts.
func (s *MirrorStore) SaveAccounts(accounts *types.Accounts) error {
	if accounts == nil {
		accounts = types.NewAccounts()
	}
	data, err := json.Marshal(accounts)
	if err != nil {
		logging.StoreWarn("Error encoding users: %v", err)
		return fmt.Errorf("failed to encode accounts: %w", err)
	}
	if err := s.set(KeyAccounts, string(data)); err != nil {
		logging.StoreWarn("Error saving users to mirror: %v", err)
		return err
	}
	logging.StoreDebug("saved %d account(s) to mirror", accounts.Len())
	return nil
}

// ClearAccounts removes the mirrored accounts.
func (s *MirrorStore) ClearAccounts() error {
	if err := s.remove(KeyAccounts); err != nil {
		logging.StoreWarn("Error clearing users: %v", err)
		return err
	}
	return nil
}

// LoadTheme returns the stored theme, light when unset or unreadable.
func (s *MirrorStore) LoadTheme() types.Theme {
	raw, ok, err := s.get(KeyTheme)
	if err != nil {
		logging.StoreWarn("Error loading theme: %v", err)
		return types.ThemeLight
	}
	switch types.Theme(strings.TrimSpace(raw)) {
	case types.ThemeDark:
		return types.ThemeDark
	case types.ThemeLight:
		return types.ThemeLight
	}
	if ok {
		logging.StoreWarn("Unknown theme %q in mirror, using light", raw)
	}
	return types.ThemeLight
}

// SaveTheme stores the theme preference.
func (s *MirrorStore) SaveTheme(theme types.Theme) error {
	if theme != types.ThemeLight && theme != types.ThemeDark {
		return fmt.Errorf("unknown theme %q", theme)
	}
	if err := s.set(KeyTheme, string(theme)); err != nil {
		logging.StoreWarn("Error saving theme: %v", err)
		return err
	}
	return nil
}

// LoadCurator returns the last seen curator identity, empty when unknown.
func (s *MirrorStore) LoadCurator() string {
	raw, _, err := s.get(KeyCurator)
	if err != nil {
		logging.StoreWarn("Error loading curator: %v", err)
		return ""
	}
	return raw
}

// SaveCurator caches the curator identity.
func (s *MirrorStore) SaveCurator(curator string) error {
	if err := s.set(KeyCurator, curator); err != nil {
		logging.StoreWarn("Error saving curator: %v", err)
		return err
	}
	return nil
}
