package domain

// Panel names a quick panel.
type Panel string

const (
	PanelWishlist Panel = "wishlist"
	PanelCart     Panel = "cart"
	PanelAccount  Panel = "account"
)

// ParsePanel validates a panel name.
func ParsePanel(s string) (Panel, bool) {
	switch p := Panel(s); p {
	case PanelWishlist, PanelCart, PanelAccount:
		return p, true
	}
	return "", false
}

// View is the screen a session is on. Exactly one of HomeView, CategoryView,
// ProductView or PanelView.
type View interface {
	Name() string
	isView()
}

// HomeView is the home feed.
type HomeView struct{}

// CategoryView is the category browser.
type CategoryView struct{}

// ProductView shows the active product.
type ProductView struct {
	ID ProductID
}

// PanelView overlays a quick panel on the view underneath it.
type PanelView struct {
	Panel Panel
	Under View
}

func (HomeView) Name() string     { return "home" }
func (CategoryView) Name() string { return "category" }
func (ProductView) Name() string  { return "product" }
func (v PanelView) Name() string  { return "panel:" + string(v.Panel) }

func (HomeView) isView()     {}
func (CategoryView) isView() {}
func (ProductView) isView()  {}
func (PanelView) isView()    {}

// Base strips any panel overlay.
func Base(v View) View {
	if p, ok := v.(PanelView); ok {
		return Base(p.Under)
	}
	if v == nil {
		return HomeView{}
	}
	return v
}

// ActiveProduct returns the product shown by v, looking through overlays.
func ActiveProduct(v View) (ProductID, bool) {
	if p, ok := Base(v).(ProductView); ok {
		return p.ID, true
	}
	return "", false
}

// TogglePanel returns the view with panel toggled: opening the panel that is
// already shown closes it, opening another one replaces it.
func TogglePanel(v View, panel Panel) View {
	if cur, ok := v.(PanelView); ok {
		if cur.Panel == panel {
			return cur.Under
		}
		return PanelView{Panel: panel, Under: cur.Under}
	}
	return PanelView{Panel: panel, Under: Base(v)}
}

// ClosePanel removes any overlay.
func ClosePanel(v View) View {
	return Base(v)
}

// WithBase swaps the view underneath any overlay for base.
func WithBase(v View, base View) View {
	if p, ok := v.(PanelView); ok {
		return PanelView{Panel: p.Panel, Under: base}
	}
	return base
}
