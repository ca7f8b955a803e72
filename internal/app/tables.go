package app

import (
	"errors"
	"fmt"

	"github.com/ayusman/signlink/internal/gesture"
	"github.com/ayusman/signlink/internal/store"
)

// TableFromStore converts a stored table into a validated mapping table.
func TableFromStore(st *store.MappingTable) (*gesture.MappingTable, error) {
	entries := make([]gesture.Entry, len(st.Mappings))
	for i, m := range st.Mappings {
		entries[i] = gesture.Entry{Hands: m.Hands, Token: gesture.Token(m.Token)}
	}
	return gesture.NewMappingTable(st.Name, st.Description, st.Locale, entries)
}

func (a *App) loadStoredTables(repo *store.TableRepository) error {
	stored, err := repo.List()
	if err != nil {
		return fmt.Errorf("app: list stored tables: %w", err)
	}
	for _, st := range stored {
		t, err := TableFromStore(st)
		if err != nil {
			a.log.Warn("skipping invalid stored table", "table", st.Name, "error", err)
			continue
		}
		a.tables.Register(t)
	}
	if len(stored) > 0 {
		a.log.Info("loaded stored mapping tables", "count", len(stored))
	}
	return nil
}

// Tables returns the table registry.
func (a *App) Tables() *gesture.Registry {
	return a.tables
}

// ActiveTable returns the table the classifier uses.
func (a *App) ActiveTable() *gesture.MappingTable {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.table
}

// SetTable switches the classifier to the named table and remembers the
// choice.
func (a *App) SetTable(name string) error {
	t, err := a.tables.Get(name)
	if err != nil {
		return err
	}
	a.useTable(t)

	if a.settings != nil {
		if err := a.settings.Set(store.SettingActiveTable, name); err != nil {
			a.log.Warn("persist active table", "error", err)
		}
	}
	a.log.Info("mapping table selected", "table", name)
	a.publish()
	return nil
}

func (a *App) useTable(t *gesture.MappingTable) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.table = t
	a.coordinator.SetClassifier(gesture.NewClassifier(t))
	a.builder.SetLocale(localeOf(t))
	a.builder.OnClassification(gesture.NoGesture)
}

// RegisterTable adds or replaces a table. Replacing the active table takes
// effect immediately.
func (a *App) RegisterTable(t *gesture.MappingTable) {
	a.tables.Register(t)
	if a.ActiveTable().Name() == t.Name() {
		a.useTable(t)
		a.publish()
	}
}

// UnregisterTable removes a table unless it is active.
func (a *App) UnregisterTable(name string) error {
	if a.ActiveTable().Name() == name {
		return fmt.Errorf("%w: %s", ErrTableActive, name)
	}
	if _, err := a.tables.Get(name); err != nil {
		if errors.Is(err, gesture.ErrUnknownTable) {
			return nil
		}
		return err
	}
	a.tables.Remove(name)
	return nil
}
