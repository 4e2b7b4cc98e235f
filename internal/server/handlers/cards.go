package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/boardsync/internal/models"
	"github.com/iudanet/boardsync/internal/ordering"
	"github.com/iudanet/boardsync/internal/realtime/events"
	"github.com/iudanet/boardsync/internal/server/storage"
	"github.com/iudanet/boardsync/internal/validation"
	"github.com/iudanet/boardsync/pkg/api"
)

func cardEntities(cards []*models.Card) []ordering.Entity {
	out := make([]ordering.Entity, len(cards))
	for i, c := range cards {
		out[i] = ordering.Entity{ID: c.ID, ParentID: c.ListID, Position: c.Position}
	}
	return out
}

// cardOf загружает карточку из пути и проверяет членство
func (h *BoardHandler) cardOf(w http.ResponseWriter, r *http.Request) (*models.Card, string, bool) {
	card, err := h.deps.Cards.GetCard(r.Context(), r.PathValue("cardID"))
	if err != nil {
		h.fail(w, r, err)
		return nil, "", false
	}
	userID, ok := h.authorize(w, r, card.BoardID, models.RoleMember)
	if !ok {
		return nil, "", false
	}
	return card, userID, true
}

// CreateCard обрабатывает POST /api/v1/lists/{listID}/cards
func (h *BoardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
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

	var req api.CreateCardRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validation.ValidateTitle("title", req.Title); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := validation.ValidateText("description", req.Description, false); err != nil {
		h.fail(w, r, err)
		return
	}

	now := time.Now().UTC()
	card := &models.Card{
		ID:          uuid.NewString(),
		ListID:      list.ID,
		BoardID:     list.BoardID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = h.deps.Ordering.Serialize(list.BoardID, func() error {
		// список мог быть удален, пока ждали блокировку
		if _, err := h.deps.Lists.GetList(ctx, list.ID); err != nil {
			return err
		}
		siblings, err := h.deps.Cards.ListCards(ctx, list.ID)
		if err != nil {
			return err
		}
		plan, err := ordering.Place(cardEntities(siblings), card.ID, insertIndex(req.Index, len(siblings)))
		if err != nil {
			return err
		}

		card.Position = plan.Position
		if err := h.deps.Cards.CreateCard(ctx, card); err != nil {
			return err
		}
		if len(plan.Renumbered) > 0 {
			if err := h.deps.Cards.UpdateCardPositions(ctx, list.ID, plan.Renumbered); err != nil {
				return err
			}
		}

		h.publish(r, events.ToBoard(list.BoardID, userID, events.CardCreated{Card: *card, Positions: plan.Renumbered}))
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.sendJSON(w, card, http.StatusCreated)
}

// UpdateCard обрабатывает PATCH /api/v1/cards/{cardID}
func (h *BoardHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	card, userID, ok := h.cardOf(w, r)
	if !ok {
		return
	}

	var req api.UpdateCardRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Title != nil {
		if err := validation.ValidateTitle("title", *req.Title); err != nil {
			h.fail(w, r, err)
			return
		}
		card.Title = *req.Title
	}
	if req.Description != nil {
		if err := validation.ValidateText("description", *req.Description, false); err != nil {
			h.fail(w, r, err)
			return
		}
		card.Description = *req.Description
	}
	if req.DueDate != nil {
		card.DueDate = req.DueDate
	}
	card.UpdatedAt = time.Now().UTC()

	if err := h.deps.Cards.UpdateCard(r.Context(), card); err != nil {
		h.fail(w, r, err)
		return
	}

	h.publish(r, events.ToBoard(card.BoardID, userID, events.CardUpdated{Card: *card}))
	h.sendJSON(w, card, http.StatusOK)
}

// DeleteCard обрабатывает DELETE /api/v1/cards/{cardID}
func (h *BoardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	card, userID, ok := h.cardOf(w, r)
	if !ok {
		return
	}

	err := h.deps.Ordering.Serialize(card.BoardID, func() error {
		if err := h.deps.Cards.DeleteCard(r.Context(), card.ID); err != nil {
			return err
		}
		h.publish(r, events.ToBoard(card.BoardID, userID, events.CardDeleted{
			BoardID: card.BoardID,
			ListID:  card.ListID,
			CardID:  card.ID,
		}))
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MoveCard обрабатывает POST /api/v1/cards/{cardID}/move
// Перемещение внутри списка или в другой список той же доски
func (h *BoardHandler) MoveCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	card, userID, ok := h.cardOf(w, r)
	if !ok {
		return
	}

	var req api.MoveCardRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.ToListID == "" {
		req.ToListID = card.ListID
	}

	var moved *models.Card
	err := h.deps.Ordering.Serialize(card.BoardID, func() error {
		// перечитываем под блокировкой: карточку могли переместить
		current, err := h.deps.Cards.GetCard(ctx, card.ID)
		if err != nil {
			return err
		}
		target, err := h.deps.Lists.GetList(ctx, req.ToListID)
		if err != nil {
			return err
		}
		if target.BoardID != current.BoardID {
			return fmt.Errorf("list %s is on another board: %w", target.ID, storage.ErrListNotFound)
		}

		siblings, err := h.deps.Cards.ListCards(ctx, target.ID)
		if err != nil {
			return err
		}
		plan, err := ordering.Place(cardEntities(siblings), current.ID, req.Index)
		if err != nil {
			return err
		}
		if err := h.deps.Cards.MoveCard(ctx, current.ID, target.ID, plan.Position, plan.Renumbered); err != nil {
			return err
		}

		h.publish(r, events.ToBoard(current.BoardID, userID, events.CardMoved{
			CardID:     current.ID,
			FromListID: current.ListID,
			ToListID:   target.ID,
			Position:   plan.Position,
			Positions:  plan.Renumbered,
		}))

		moved, err = h.deps.Cards.GetCard(ctx, current.ID)
		return err
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.sendJSON(w, moved, http.StatusOK)
}

// ReorderCards обрабатывает PUT /api/v1/lists/{listID}/cards/order
func (h *BoardHandler) ReorderCards(w http.ResponseWriter, r *http.Request) {
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

	var req api.ReorderRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validation.ValidateIDs(req.IDs); err != nil {
		h.fail(w, r, err)
		return
	}

	placements, err := h.deps.Ordering.ReorderBatch(list.BoardID, req.IDs, func(placements []ordering.Placement) error {
		current, err := h.deps.Cards.ListCards(ctx, list.ID)
		if err != nil {
			return err
		}
		ids := make([]string, len(current))
		for i, c := range current {
			ids[i] = c.ID
		}
		if err := sameSet(req.IDs, ids); err != nil {
			return err
		}
		if err := h.deps.Cards.UpdateCardPositions(ctx, list.ID, placements); err != nil {
			return err
		}

		h.publish(r, events.ToBoard(list.BoardID, userID, events.CardMoved{ToListID: list.ID, Positions: placements}))
		return nil
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.sendJSON(w, OrderResponse{ParentID: list.ID, Positions: placements}, http.StatusOK)
}

// AddComment обрабатывает POST /api/v1/cards/{cardID}/comments
func (h *BoardHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	card, userID, ok := h.cardOf(w, r)
	if !ok {
		return
	}

	var req api.AddCommentRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validation.ValidateText("text", req.Text, true); err != nil {
		h.fail(w, r, err)
		return
	}

	author, err := h.deps.Users.GetUserByID(ctx, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	comment := &models.Comment{
		ID:        uuid.NewString(),
		CardID:    card.ID,
		BoardID:   card.BoardID,
		Text:      req.Text,
		Author:    author.Profile(),
		CreatedAt: time.Now().UTC(),
	}
	if err := h.deps.Cards.AddComment(ctx, comment); err != nil {
		h.fail(w, r, err)
		return
	}

	h.publish(r, events.ToBoard(card.BoardID, userID, events.CommentAdded{Comment: *comment}))
	h.sendJSON(w, comment, http.StatusCreated)
}

// ListComments обрабатывает GET /api/v1/cards/{cardID}/comments
func (h *BoardHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	card, _, ok := h.cardOf(w, r)
	if !ok {
		return
	}

	comments, err := h.deps.Cards.ListComments(r.Context(), card.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	h.sendJSON(w, comments, http.StatusOK)
}
