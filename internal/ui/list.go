package ui

import (
	"fmt"
	"path"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/wardrobe/internal/gallery"
)

var _ list.Item = cardItem{}

// cardItem wraps [gallery.Card] to implement [list.Item].
type cardItem struct {
	card  *gallery.Card
	label string
}

func (i cardItem) FilterValue() string { return i.card.Caption }

func (i cardItem) Title() string {
	mark := "[ ]"
	if i.card.Selected {
		mark = "[x]"
	}
	return fmt.Sprintf("%s %s", mark, path.Base(i.card.Item.Path))
}

func (i cardItem) Description() string {
	caption := i.card.Caption
	if i.card.Pending {
		caption = styles.help.Render(caption)
	}
	return fmt.Sprintf("%s • %s", i.label, caption)
}

// cardItems flattens the buckets of v in display order.
func cardItems(v *gallery.View) []list.Item {
	items := make([]list.Item, 0, v.Len())
	for _, b := range v.Buckets {
		for _, c := range b.Cards {
			items = append(items, cardItem{card: c, label: b.Label})
		}
	}
	return items
}
