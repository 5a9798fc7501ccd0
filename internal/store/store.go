// Package store mirrors a session's cart and wishlist into the KV backend.
// Reads never fail: anything missing or malformed reads as an empty list.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/brandcart/storefront/internal/domain"
	"github.com/brandcart/storefront/internal/repository"
	apperrors "github.com/brandcart/storefront/pkg/errors"
)

// Persisted list names. Each is namespaced by session id in the KV.
const (
	CartKey     = "brandcartCart"
	WishlistKey = "brandcartWishlist"
)

// Key returns the KV key of list for a session.
func Key(sessionID, list string) string {
	return sessionID + ":" + list
}

// Snapshot is what a session starts from.
type Snapshot struct {
	Cart     []domain.CartLine
	Wishlist []string
}

// Store reads and writes persisted lists.
type Store struct {
	kv     repository.KV
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a store. Written keys expire after ttl; zero keeps them.
func New(kv repository.KV, ttl time.Duration, logger *slog.Logger) *Store {
	return &Store{kv: kv, ttl: ttl, logger: logger}
}

// ReadList returns the elements of the JSON array stored under key. An
// absent key, a backend failure, invalid JSON or a non-array value all read
// as an empty list.
func (s *Store) ReadList(ctx context.Context, key string) []json.RawMessage {
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "persisted list unreadable",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return []json.RawMessage{}
	}

	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err != nil || list == nil {
		return []json.RawMessage{}
	}
	return list
}

// ReadCart keeps only objects with a non-empty id. Quantities below one, or
// missing, read as one.
func (s *Store) ReadCart(ctx context.Context, sessionID string) []domain.CartLine {
	raw := s.ReadList(ctx, Key(sessionID, CartKey))
	lines := make([]domain.CartLine, 0, len(raw))
	for _, item := range raw {
		if line, ok := cartLine(item); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

// ReadWishlist keeps only string entries.
func (s *Store) ReadWishlist(ctx context.Context, sessionID string) []string {
	raw := s.ReadList(ctx, Key(sessionID, WishlistKey))
	ids := make([]string, 0, len(raw))
	for _, item := range raw {
		var id string
		if json.Unmarshal(item, &id) == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// WriteList stores v as JSON under key. Last write wins.
func (s *Store) WriteList(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, data, s.ttl); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// WriteCart mirrors the cart lines.
func (s *Store) WriteCart(ctx context.Context, sessionID string, lines []domain.CartLine) error {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return s.WriteList(ctx, Key(sessionID, CartKey), lines)
}

// WriteWishlist mirrors the wishlist ids.
func (s *Store) WriteWishlist(ctx context.Context, sessionID string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return s.WriteList(ctx, Key(sessionID, WishlistKey), ids)
}

// Load reads both lists for a session.
func (s *Store) Load(ctx context.Context, sessionID string) Snapshot {
	return Snapshot{
		Cart:     s.ReadCart(ctx, sessionID),
		Wishlist: s.ReadWishlist(ctx, sessionID),
	}
}

// cartLine decodes one stored entry loosely: ids may be strings or numbers,
// and numeric fields may be numbers or numeric strings.
func cartLine(raw json.RawMessage) (domain.CartLine, bool) {
	var obj map[string]any
	if json.Unmarshal(raw, &obj) != nil || obj == nil {
		return domain.CartLine{}, false
	}

	if n, ok := obj["id"].(float64); ok && n == 0 {
		return domain.CartLine{}, false
	}
	id := looseString(obj["id"])
	if id == "" {
		return domain.CartLine{}, false
	}

	line := domain.CartLine{
		ID:    domain.ProductID(id),
		Title: looseString(obj["title"]),
		Image: looseString(obj["image"]),
		Qty:   1,
	}
	if price, ok := looseNumber(obj["price"]); ok {
		line.Price = price
	}
	if qty, ok := looseNumber(obj["qty"]); ok && qty >= 1 {
		line.Qty = int(qty)
	}
	return line, true
}

func looseString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func looseNumber(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
