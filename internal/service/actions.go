package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"

	"github.com/brandcart/storefront/internal/domain"
	"github.com/brandcart/storefront/internal/event"
)

// Search loads the listing for text and leaves any open product.
func (s *Session) Search(ctx context.Context, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchLocked(ctx, text)
}

func (s *Session) searchLocked(ctx context.Context, text string) {
	s.searchText = text
	s.closeProductLocked(ctx)
	s.loadListingLocked(ctx, text)
}

// SelectSuggestion applies a picked suggestion. An entry with an id opens
// that product; a local entry without one searches its title.
func (s *Session) SelectSuggestion(ctx context.Context, sug domain.Suggestion) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.searchText = sug.Title
	if sug.ID == "" {
		s.searchLocked(ctx, sug.Title)
		return
	}

	summary, ok := s.findLocalLocked(sug.ID)
	if !ok {
		summary = domain.Product{
			ID:           sug.ID,
			Title:        sug.Title,
			Category:     sug.Category,
			SubCategory:  sug.SubCategory,
			SellingPrice: sug.Price,
		}
		if sug.Image != "" {
			summary.Images = []string{sug.Image}
		}
	}
	s.openProductLocked(ctx, summary)
}

// SelectCategory searches a category shortcut from the home strip.
func (s *Session) SelectCategory(ctx context.Context, query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.view = domain.WithBase(s.view, domain.HomeView{})
	s.searchLocked(ctx, query)
}

// OpenCategories shows the category browser. A known query also moves the
// rail selection; the products are filtered locally.
func (s *Session) OpenCategories(ctx context.Context, query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if domain.IsCategoryQuery(query) {
		s.categoryQuery = query
	}
	s.closeProductLocked(ctx)
	s.view = domain.CategoryView{}
}

// GoHome resets to the trending home feed.
func (s *Session) GoHome(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeProductLocked(ctx)
	s.view = domain.HomeView{}
	s.searchText = ""
	s.loadListingLocked(ctx, "")
}

// TogglePanel opens panel, or closes it when it is already open.
func (s *Session) TogglePanel(panel domain.Panel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = domain.TogglePanel(s.view, panel)
}

// ClosePanel removes any quick panel.
func (s *Session) ClosePanel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = domain.ClosePanel(s.view)
}

// OpenProduct makes id the active product, using the card the shopper
// clicked as its summary when the session has it.
func (s *Session) OpenProduct(ctx context.Context, id domain.ProductID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openByIDLocked(ctx, id)
}

func (s *Session) openByIDLocked(ctx context.Context, id domain.ProductID) {
	if id == "" {
		return
	}
	summary, ok := s.findLocalLocked(id)
	if !ok {
		summary = domain.Product{ID: id}
	}
	s.openProductLocked(ctx, summary)
}

// CloseProduct leaves the product view.
func (s *Session) CloseProduct(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeProductLocked(ctx)
}

// Sync aligns the active product with the p parameter of the page URL: a
// different id opens it, an empty one closes the product.
func (s *Session) Sync(ctx context.Context, p string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := domain.ProductID(strings.TrimSpace(p))
	active, ok := domain.ActiveProduct(s.view)
	switch {
	case id == "" && ok:
		s.closeProductLocked(ctx)
	case id != "" && (!ok || active != id):
		s.openByIDLocked(ctx, id)
	}
}

// SelectImage picks one of the detail images as the main image.
func (s *Session) SelectImage(image string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detail != nil && slices.Contains(s.detail.Images, image) {
		s.image = image
	}
}

// ----------------------------------------------------------------------------
// Cart
// ----------------------------------------------------------------------------

// AddToCart adds one unit of id. The product is taken from what the session
// already holds, else fetched. preferredImage defaults to the selected
// detail image for the active product.
func (s *Session) AddToCart(ctx context.Context, id domain.ProductID, preferredImage string) error {
	if id == "" {
		return nil
	}

	s.mu.Lock()
	p, ok := s.findLocalLocked(id)
	s.mu.Unlock()

	if !ok {
		fetched, err := s.deps.Catalog.LoadDetail(ctx, id)
		if err != nil {
			return fmt.Errorf("add to cart: %w", err)
		}
		p = fetched
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if preferredImage == "" && s.detail != nil && s.detail.ID == id {
		preferredImage = s.image
	}
	if !s.cart.Add(p, preferredImage) {
		return nil
	}
	s.saveCartLocked(ctx)
	s.flashLocked("Added to cart")
	return nil
}

// ChangeQuantity adds delta to a cart line, removing it at zero.
func (s *Session) ChangeQuantity(ctx context.Context, id domain.ProductID, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.ChangeQuantity(id, delta)
	s.saveCartLocked(ctx)
}

// RemoveFromCart drops a cart line.
func (s *Session) RemoveFromCart(ctx context.Context, id domain.ProductID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Remove(id)
	s.saveCartLocked(ctx)
	s.flashLocked("Removed from cart")
}

// Checkout empties the cart and closes the quick panel. An empty cart only
// gets a notice.
func (s *Session) Checkout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cart.Len() == 0 {
		s.flashLocked("Cart is empty")
		return
	}

	lines := s.cart.Lines()
	count := s.cart.ItemCount()
	s.cart.Clear()
	s.view = domain.ClosePanel(s.view)
	s.saveCartLocked(ctx)
	s.publishLocked(ctx, event.TopicCheckoutCompleted, func(ctx context.Context) error {
		return s.deps.Events.CheckoutCompleted(ctx, s.id, lines)
	})

	s.deps.Logger.InfoContext(ctx, "checkout completed",
		slog.Int("lines", len(lines)),
		slog.Int("items", count),
	)
	s.flashLocked(checkoutNotice(count))
}

func checkoutNotice(count int) string {
	if count > 1 {
		return fmt.Sprintf("Checkout complete for %d items", count)
	}
	return fmt.Sprintf("Checkout complete for %d item", count)
}

// ----------------------------------------------------------------------------
// Wishlist
// ----------------------------------------------------------------------------

// ToggleWishlist adds or removes the active product.
func (s *Session) ToggleWishlist(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := domain.ActiveProduct(s.view)
	if !ok {
		return
	}
	if s.wishlist.Toggle(id) {
		s.flashLocked("Added to wishlist")
	} else {
		s.flashLocked("Removed from wishlist")
	}
	s.saveWishlistLocked(ctx)
	s.refreshWishlistLocked(ctx)
}

// RemoveFromWishlist drops id from the wishlist.
func (s *Session) RemoveFromWishlist(ctx context.Context, id domain.ProductID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wishlist.Remove(id)
	s.saveWishlistLocked(ctx)
	s.refreshWishlistLocked(ctx)
	s.flashLocked("Removed from wishlist")
}

// ----------------------------------------------------------------------------
// Account panel and sharing
// ----------------------------------------------------------------------------

// AccountAction runs an entry of the account panel. Unknown actions are
// ignored.
func (s *Session) AccountAction(ctx context.Context, action domain.AccountAction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if text, ok := domain.FixedNotice(action); ok {
		s.flashLocked(text)
		return
	}

	switch action {
	case domain.ActionLanguage:
		s.language = domain.NextLanguage(s.language)
		s.flashLocked("Language: " + s.language)
	case domain.ActionNotifications:
		s.notifications = !s.notifications
		if s.notifications {
			s.flashLocked("Notifications enabled")
		} else {
			s.flashLocked("Notifications disabled")
		}
	case domain.ActionSell:
		s.view = domain.HomeView{}
		s.searchLocked(ctx, "deals")
		s.flashLocked("Showing sell and deal options")
	case domain.ActionFAQs:
		s.view = domain.HomeView{}
		s.searchLocked(ctx, "help")
		s.flashLocked("Showing help and FAQs")
	}
}

// Share prepares a link to the active product.
func (s *Session) Share() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := domain.ActiveProduct(s.view)
	if !ok {
		return "", false
	}
	s.shareURL = strings.TrimRight(s.deps.SiteURL, "/") + "/?" + url.Values{"p": {id.String()}}.Encode()
	s.flashLocked("Product link copied")
	return s.shareURL, true
}

// Suggest feeds text to the suggestion engine and waits for its result. It
// reports false when newer input superseded text first.
func (s *Session) Suggest(ctx context.Context, text string) ([]domain.Suggestion, bool) {
	s.engine.Input(ctx, text)
	return s.engine.Await(ctx, text)
}
