package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ayusman/signlink/internal/gesture"
	"github.com/ayusman/signlink/internal/store"
)

// TableRegistry is the live set of mapping tables the session classifies
// with.
type TableRegistry interface {
	Tables() *gesture.Registry
	ActiveTable() *gesture.MappingTable
	RegisterTable(t *gesture.MappingTable)
	UnregisterTable(name string) error
}

// TablesHandler serves /api/tables. Built-in tables are read-only and
// addressed by name; stored tables are addressed by ID.
type TablesHandler struct {
	store    *store.Store
	registry TableRegistry
}

// NewTablesHandler creates a TablesHandler. s may be nil, in which case
// only reads are served.
func NewTablesHandler(s *store.Store, registry TableRegistry) *TablesHandler {
	return &TablesHandler{store: s, registry: registry}
}

// Routes mounts the handler's endpoints on r.
func (h *TablesHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type mappingJSON struct {
	Hands []string `json:"hands"`
	Token string   `json:"token"`
}

type tableRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Locale      string        `json:"locale"`
	Mappings    []mappingJSON `json:"mappings"`
}

type tableResponse struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Locale      string        `json:"locale"`
	Builtin     bool          `json:"builtin"`
	Active      bool          `json:"active"`
	Mappings    []mappingJSON `json:"mappings"`
	CreatedAt   string        `json:"created_at,omitempty"`
	UpdatedAt   string        `json:"updated_at,omitempty"`
}

type listTablesResponse struct {
	Tables []tableResponse `json:"tables"`
}

func (h *TablesHandler) fromTable(t *gesture.MappingTable) tableResponse {
	resp := tableResponse{
		ID:          t.Name(),
		Name:        t.Name(),
		Description: t.Description(),
		Locale:      t.Locale(),
		Builtin:     true,
		Active:      h.registry.ActiveTable().Name() == t.Name(),
	}
	for _, e := range t.Entries() {
		resp.Mappings = append(resp.Mappings, mappingJSON{Hands: e.Hands, Token: string(e.Token)})
	}
	return resp
}

func (h *TablesHandler) fromStored(st *store.MappingTable) tableResponse {
	resp := tableResponse{
		ID:          st.ID,
		Name:        st.Name,
		Description: st.Description,
		Locale:      st.Locale,
		Active:      h.registry.ActiveTable().Name() == st.Name,
		Mappings:    make([]mappingJSON, 0, len(st.Mappings)),
		CreatedAt:   st.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   st.UpdatedAt.Format(time.RFC3339),
	}
	for _, m := range st.Mappings {
		resp.Mappings = append(resp.Mappings, mappingJSON{Hands: m.Hands, Token: m.Token})
	}
	return resp
}

// toTable validates req as a mapping table and converts it for storage.
func (req tableRequest) toTable() (*gesture.MappingTable, []store.Mapping, error) {
	entries := make([]gesture.Entry, len(req.Mappings))
	mappings := make([]store.Mapping, len(req.Mappings))
	for i, m := range req.Mappings {
		entries[i] = gesture.Entry{Hands: m.Hands, Token: gesture.Token(m.Token)}
		mappings[i] = store.Mapping{Hands: m.Hands, Token: m.Token}
	}
	t, err := gesture.NewMappingTable(req.Name, req.Description, req.Locale, entries)
	return t, mappings, err
}

func (h *TablesHandler) list(w http.ResponseWriter, r *http.Request) {
	stored := map[string]*store.MappingTable{}
	if h.store != nil {
		tables, err := h.store.Tables().List()
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Failed to list tables")
			return
		}
		for _, st := range tables {
			stored[st.Name] = st
		}
	}

	resp := listTablesResponse{Tables: []tableResponse{}}
	reg := h.registry.Tables()
	for _, name := range reg.Names() {
		if st, ok := stored[name]; ok {
			resp.Tables = append(resp.Tables, h.fromStored(st))
			continue
		}
		t, err := reg.Get(name)
		if err != nil {
			continue
		}
		resp.Tables = append(resp.Tables, h.fromTable(t))
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (h *TablesHandler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if h.store != nil {
		st, err := h.store.Tables().GetByID(id)
		if err == nil {
			WriteJSON(w, http.StatusOK, h.fromStored(st))
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusInternalServerError, "Failed to get table")
			return
		}
	}

	t, err := h.registry.Tables().Get(id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Table not found")
		return
	}
	WriteJSON(w, http.StatusOK, h.fromTable(t))
}

func (h *TablesHandler) create(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		WriteError(w, http.StatusServiceUnavailable, "Table storage is disabled")
		return
	}

	var req tableRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	table, mappings, err := req.toTable()
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.registry.Tables().Get(req.Name); err == nil {
		WriteError(w, http.StatusConflict, "Table name already in use")
		return
	}

	st := &store.MappingTable{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Locale:      req.Locale,
		Mappings:    mappings,
	}
	if err := h.store.Tables().Create(st); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to create table")
		return
	}
	h.registry.RegisterTable(table)

	WriteJSON(w, http.StatusCreated, h.fromStored(st))
}

func (h *TablesHandler) update(w http.ResponseWriter, r *http.Request) {
	st, ok := h.lookupStored(w, r)
	if !ok {
		return
	}

	var req tableRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" {
		req.Name = st.Name
	}
	table, mappings, err := req.toTable()
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Name != st.Name {
		if _, err := h.registry.Tables().Get(req.Name); err == nil {
			WriteError(w, http.StatusConflict, "Table name already in use")
			return
		}
		if !h.ensureInactive(w, st.Name) {
			return
		}
	}

	oldName := st.Name
	st.Name = req.Name
	st.Description = req.Description
	st.Locale = req.Locale
	st.Mappings = mappings
	if err := h.store.Tables().Update(st); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to update table")
		return
	}
	if oldName != st.Name {
		if err := h.registry.UnregisterTable(oldName); err != nil {
			WriteError(w, http.StatusConflict, err.Error())
			return
		}
	}
	h.registry.RegisterTable(table)

	WriteJSON(w, http.StatusOK, h.fromStored(st))
}

func (h *TablesHandler) delete(w http.ResponseWriter, r *http.Request) {
	st, ok := h.lookupStored(w, r)
	if !ok {
		return
	}
	if !h.ensureInactive(w, st.Name) {
		return
	}
	if err := h.store.Tables().Delete(st.ID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to delete table")
		return
	}
	if err := h.registry.UnregisterTable(st.Name); err != nil {
		WriteError(w, http.StatusConflict, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ensureInactive rejects changes that would remove the table in use.
func (h *TablesHandler) ensureInactive(w http.ResponseWriter, name string) bool {
	if active := h.registry.ActiveTable(); active != nil && active.Name() == name {
		WriteError(w, http.StatusConflict, "Table is in use")
		return false
	}
	return true
}

// lookupStored writes the error response itself when it returns false.
func (h *TablesHandler) lookupStored(w http.ResponseWriter, r *http.Request) (*store.MappingTable, bool) {
	if h.store == nil {
		WriteError(w, http.StatusServiceUnavailable, "Table storage is disabled")
		return nil, false
	}
	id := chi.URLParam(r, "id")
	st, err := h.store.Tables().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			if _, err := h.registry.Tables().Get(id); err == nil {
				WriteError(w, http.StatusForbidden, "Built-in tables are read-only")
				return nil, false
			}
			WriteError(w, http.StatusNotFound, "Table not found")
			return nil, false
		}
		WriteError(w, http.StatusInternalServerError, "Failed to get table")
		return nil, false
	}
	return st, true
}
