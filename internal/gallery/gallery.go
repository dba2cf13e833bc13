// Package gallery turns a wardrobe listing into a grouped, filterable view model.
//
// Every render starts from scratch: the previous view, including its selection, is discarded.
package gallery

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/desertthunder/wardrobe/internal/shared"
)

// Default empty-view messages.
const (
	NoMatches = "no items match this filter"
	NoImages  = "no images yet"
)

// Card is one rendered item with its selection control.
type Card struct {
	Item     models.WardrobeItem
	Caption  string
	Pending  bool
	Selected bool
}

// Bucket holds the cards of one category in server order.
type Bucket struct {
	Category models.Category
	Label    string
	Cards    []*Card
}

// View is the result of one render pass.
type View struct {
	Filter  models.Category
	Buckets []Bucket
	// Skipped counts items whose category has no bucket. They stay in the collection but are not shown.
	Skipped int
	// EmptyMessage is shown when no card is visible.
	EmptyMessage string

	cards []*Card
}

// Renderer partitions items into a fixed list of buckets.
type Renderer struct {
	buckets []models.Category
	empty   string
	logger  *log.Logger
}

// NewRenderer creates a [Renderer] for buckets in display order. empty is the message for a view without cards.
func NewRenderer(buckets []models.Category, empty string, logger *log.Logger) *Renderer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if empty == "" {
		empty = NoMatches
	}
	return &Renderer{buckets: append([]models.Category(nil), buckets...), empty: empty, logger: logger}
}

// Buckets returns the renderer's categories in display order.
func (r *Renderer) Buckets() []models.Category {
	return append([]models.Category(nil), r.buckets...)
}

// Render builds a fresh view of items for filter. [models.CategoryAll] or "" shows every bucket.
//
// Items keep their order within a bucket. An item whose category has no bucket is logged and skipped.
func (r *Renderer) Render(items []models.WardrobeItem, filter models.Category) *View {
	if filter == "" {
		filter = models.CategoryAll
	}

	view := &View{Filter: filter, EmptyMessage: r.empty}
	index := make(map[models.Category]int, len(r.buckets))
	for _, c := range r.buckets {
		if filter != models.CategoryAll && c != filter {
			continue
		}
		index[c] = len(view.Buckets)
		view.Buckets = append(view.Buckets, Bucket{Category: c, Label: c.Label()})
	}

	for _, item := range items {
		if !item.Category.In(r.buckets) {
			view.Skipped++
			r.logger.Warn("skipping item with unknown category", "path", item.Path, "category", item.Category)
			continue
		}

		i, shown := index[item.Category]
		if !shown {
			continue
		}

		card := &Card{Item: item, Caption: item.Caption(), Pending: !item.HasTags()}
		view.Buckets[i].Cards = append(view.Buckets[i].Cards, card)
	}

	for _, b := range view.Buckets {
		view.cards = append(view.cards, b.Cards...)
	}

	return view
}

// Cards returns every visible card in display order.
func (v *View) Cards() []*Card { return v.cards }

// Len returns the number of visible cards.
func (v *View) Len() int { return len(v.cards) }

// Empty reports whether no card is visible.
func (v *View) Empty() bool { return len(v.cards) == 0 }

// Card returns the card for path.
func (v *View) Card(path string) (*Card, bool) {
	for _, c := range v.cards {
		if c.Item.Path == path {
			return c, true
		}
	}
	return nil, false
}

// Toggle flips the selection of the card at path and returns the new state.
func (v *View) Toggle(path string) bool {
	c, ok := v.Card(path)
	if !ok {
		return false
	}
	c.Selected = !c.Selected
	return c.Selected
}

// Select sets the selection of the card at path. It reports whether such a card exists.
func (v *View) Select(path string, selected bool) bool {
	c, ok := v.Card(path)
	if ok {
		c.Selected = selected
	}
	return ok
}

// SelectAll marks every visible card.
func (v *View) SelectAll() {
	for _, c := range v.cards {
		c.Selected = true
	}
}

// ClearSelection unmarks every card.
func (v *View) ClearSelection() {
	for _, c := range v.cards {
		c.Selected = false
	}
}

// SelectedPaths reads back the selection in display order.
func (v *View) SelectedPaths() []string {
	var paths []string
	for _, c := range v.cards {
		if c.Selected {
			paths = append(paths, c.Item.Path)
		}
	}
	return paths
}
