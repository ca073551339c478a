package session

import (
	"testing"

	"github.com/quantumhc/assessment/internal/model"
)

func TestStore_GetMissReturnsNil(t *testing.T) {
	store := NewStore()
	if state := store.Get(Context{SessionID: "s", TemplateID: 1}); state != nil {
		t.Fatalf("expected nil for an untouched session, got %+v", state)
	}
}

func TestStore_UpdateAllocatesAndStores(t *testing.T) {
	store := NewStore()
	ctx := Context{SessionID: "s", TemplateID: 1}
	store.Update(ctx, func(state *model.SessionState) {
		state.Adjustment.AspectWeights["sikap-kerja"] = 35
	})

	state := store.Get(ctx)
	if state == nil || state.Adjustment.AspectWeights["sikap-kerja"] != 35 {
		t.Fatalf("expected the stored override, got %+v", state)
	}
}

func TestStore_EmptyStateIsDropped(t *testing.T) {
	store := NewStore()
	ctx := Context{SessionID: "s", TemplateID: 1}
	store.Update(ctx, func(state *model.SessionState) {
		state.Adjustment.AspectWeights["sikap-kerja"] = 35
	})
	store.Update(ctx, func(state *model.SessionState) {
		delete(state.Adjustment.AspectWeights, "sikap-kerja")
	})
	if state := store.Get(ctx); state != nil {
		t.Fatalf("a state left empty must be removed, got %+v", state)
	}

	// A bare selection keeps the bucket alive.
	id := uint(7)
	store.Update(ctx, func(state *model.SessionState) {
		state.SelectedStandardID = &id
	})
	if state := store.Get(ctx); state == nil || state.SelectedStandardID == nil {
		t.Fatalf("a selection alone must keep the state, got %+v", state)
	}
}

func TestStore_KeysAreScopedBySessionAndTemplate(t *testing.T) {
	store := NewStore()
	a := Context{SessionID: "s", TemplateID: 1}
	b := Context{SessionID: "s", TemplateID: 2}
	c := Context{SessionID: "other", TemplateID: 1}
	store.Update(a, func(state *model.SessionState) {
		state.Adjustment.AspectWeights["sikap-kerja"] = 35
	})

	if store.Get(b) != nil || store.Get(c) != nil {
		t.Fatalf("state must not leak across templates or sessions")
	}
}

func TestStore_GetReturnsClone(t *testing.T) {
	store := NewStore()
	ctx := Context{SessionID: "s", TemplateID: 1}
	store.Update(ctx, func(state *model.SessionState) {
		state.Adjustment.AspectWeights["sikap-kerja"] = 35
	})

	state := store.Get(ctx)
	state.Adjustment.AspectWeights["sikap-kerja"] = 99

	if again := store.Get(ctx); again.Adjustment.AspectWeights["sikap-kerja"] != 35 {
		t.Fatalf("stored state was mutated through a returned copy")
	}
}

func TestStore_Delete(t *testing.T) {
	store := NewStore()
	ctx := Context{SessionID: "s", TemplateID: 1}
	store.Put(ctx, &model.SessionState{Adjustment: func() *model.SessionAdjustment {
		adj := model.NewSessionAdjustment()
		adj.AspectWeights["sikap-kerja"] = 35
		return adj
	}()})
	store.Delete(ctx)
	if store.Get(ctx) != nil {
		t.Fatalf("expected state gone after delete")
	}
}

func TestNewSessionID_Unique(t *testing.T) {
	if NewSessionID() == NewSessionID() {
		t.Fatalf("session ids must be unique")
	}
	if NewSessionID() == "" {
		t.Fatalf("session ids must be non-empty")
	}
}
