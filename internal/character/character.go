// AngelaMos | 2026
// character.go

package character

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/mahuru-activation/internal/core"
	"github.com/carterperez-dev/mahuru-activation/internal/docstore"
)

const Collection = "characters"

// Character is a guardian a learner travels with. Reference data only.
type Character struct {
	ID                   string    `json:"id"                    firestore:"id"`
	Name                 string    `json:"name"                  firestore:"name"`
	Description          string    `json:"description"           firestore:"description"`
	ImageURL             string    `json:"image_url"             firestore:"image_url"`
	CulturalSignificance string    `json:"cultural_significance" firestore:"cultural_significance"`
	CreatedAt            time.Time `json:"created_at"            firestore:"created_at"`
}

type Service struct {
	characters *docstore.Collection[Character]
}

func NewService(store docstore.Store) *Service {
	return &Service{characters: docstore.NewCollection[Character](store, Collection)}
}

func (s *Service) List(ctx context.Context) ([]Character, error) {
	out, err := s.characters.List(ctx, docstore.Query{}.Order("name", false))
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Character, error) {
	c, err := s.characters.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get character: %w", err)
	}
	return c, nil
}

func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.Get(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Seed writes the given characters. Existing documents are kept unless
// overwrite is set. It returns how many were written.
func (s *Service) Seed(ctx context.Context, chars []Character, overwrite bool) (int, error) {
	written := 0
	for i := range chars {
		c := chars[i]
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now().UTC()
		}

		var err error
		if overwrite {
			err = s.characters.Set(ctx, c.ID, &c)
		} else {
			err = s.characters.Create(ctx, c.ID, &c)
			if errors.Is(err, core.ErrDuplicateKey) {
				continue
			}
		}
		if err != nil {
			return written, fmt.Errorf("seed character %s: %w", c.ID, err)
		}
		written++
	}
	return written, nil
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/characters", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{characterID}", h.Get)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	chars, err := h.service.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, chars)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), chi.URLParam(r, "characterID"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "character")
			return
		}
		core.InternalServerError(w, err)
		return
	}
	core.OK(w, c)
}
