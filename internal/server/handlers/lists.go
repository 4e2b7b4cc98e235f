package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/boardsync/internal/models"
	"github.com/iudanet/boardsync/internal/ordering"
	"github.com/iudanet/boardsync/internal/realtime/events"
	"github.com/iudanet/boardsync/internal/validation"
	"github.com/iudanet/boardsync/pkg/api"
)

// OrderResponse результат полной перестановки
type OrderResponse struct {
	ParentID  string               `json:"parentId"`
	Positions []ordering.Placement `json:"positions"`
}

func listEntities(lists []*models.List) []ordering.Entity {
	out := make([]ordering.Entity, len(lists))
	for i, l := range lists {
		out[i] = ordering.Entity{ID: l.ID, ParentID: l.BoardID, Position: l.Position}
	}
	return out
}

// insertIndex nil означает вставку в конец
func insertIndex(index *int, n int) int {
	if index == nil {
		return n
	}
	return *index
}

// sameSet проверяет, что порядок перечисляет ровно существующие сущности
func sameSet(ids, existing []string) error {
	if len(ids) != len(existing) {
		return fmt.Errorf("%w: order must contain all %d items, got %d", validation.ErrInvalid, len(existing), len(ids))
	}
	known := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		known[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%w: unknown id %q", validation.ErrInvalid, id)
		}
	}
	return nil
}

// CreateList обрабатывает POST /api/v1/boards/{boardID}/lists
func (h *BoardHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	boardID := r.PathValue("boardID")
	userID, ok := h.authorize(w, r, boardID, models.RoleMember)
	if !ok {
		return
	}

	var req api.CreateListRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validation.ValidateTitle("title", req.Title); err != nil {
		h.fail(w, r, err)
		return
	}

	now := time.Now().UTC()
	list := &models.List{
		ID:        uuid.NewString(),
		BoardID:   boardID,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := h.deps.Ordering.Serialize(boardID, func() error {
		siblings, err := h.deps.Lists.ListLists(ctx, boardID)
		if err != nil {
			return err
		}
		plan, err := ordering.Place(listEntities(siblings), list.ID, insertIndex(req.Index, len(siblings)))
		if err != nil {
			return err
		}

		list.Position = plan.Position
		if err := h.deps.Lists.CreateList(ctx, list); err != nil {
			return err
		}
		if len(plan.Renumbered) > 0 {
			if err := h.deps.Lists.UpdateListPositions(ctx, boardID, plan.Renumbered); err != nil {
				return err
			}
		}

		h.publish(r, events.ToBoard(boardID, userID, events.ListCreated{List: *list, Positions: plan.Renumbered}))
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.sendJSON(w, list, http.StatusCreated)
}

// UpdateList обрабатывает PATCH /api/v1/lists/{listID}
func (h *BoardHandler) UpdateList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.deps.Lists.GetList(ctx, r.PathValue("listID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	userID, ok := h.authorize(w, r, list.BoardID, models.RoleMember)
	if !ok {
		return
	}

	var req api.UpdateListRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validation.ValidateTitle("title", req.Title); err != nil {
		h.fail(w, r, err)
		return
	}

	list.Title = req.Title
	list.UpdatedAt = time.Now().UTC()
	if err := h.deps.Lists.UpdateList(ctx, list); err != nil {
		h.fail(w, r, err)
		return
	}

	h.publish(r, events.ToBoard(list.BoardID, userID, events.ListUpdated{List: *list}))
	h.sendJSON(w, list, http.StatusOK)
}

// DeleteList обрабатывает DELETE /api/v1/lists/{listID}
// Карточки списка удаляются вместе с ним
func (h *BoardHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.deps.Lists.GetList(ctx, r.PathValue("listID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	userID, ok := h.authorize(w, r, list.BoardID, models.RoleMember)
	if !ok {
		return
	}

	err = h.deps.Ordering.Serialize(list.BoardID, func() error {
		if err := h.deps.Lists.DeleteList(ctx, list.ID); err != nil {
			return err
		}
		h.publish(r, events.ToBoard(list.BoardID, userID, events.ListDeleted{BoardID: list.BoardID, ListID: list.ID}))
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReorderLists обрабатывает PUT /api/v1/boards/{boardID}/lists/order
// Списки получают позиции 0..n-1 в переданном порядке
func (h *BoardHandler) ReorderLists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	boardID := r.PathValue("boardID")
	userID, ok := h.authorize(w, r, boardID, models.RoleMember)
	if !ok {
		return
	}

	var req api.ReorderRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validation.ValidateIDs(req.IDs); err != nil {
		h.fail(w, r, err)
		return
	}

	placements, err := h.deps.Ordering.ReorderBatch(boardID, req.IDs, func(placements []ordering.Placement) error {
		current, err := h.deps.Lists.ListLists(ctx, boardID)
		if err != nil {
			return err
		}
		ids := make([]string, len(current))
		for i, l := range current {
			ids[i] = l.ID
		}
		if err := sameSet(req.IDs, ids); err != nil {
			return err
		}
		if err := h.deps.Lists.UpdateListPositions(ctx, boardID, placements); err != nil {
			return err
		}

		h.publish(r, events.ToBoard(boardID, userID, events.ListsReordered{BoardID: boardID, Positions: placements}))
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.sendJSON(w, OrderResponse{ParentID: boardID, Positions: placements}, http.StatusOK)
}
