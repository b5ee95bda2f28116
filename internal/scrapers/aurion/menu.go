package aurion

import (
	"fmt"

	"aurioncal/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
)

// MenuLabels are the sidebar labels leading to the schedule picker.
type MenuLabels struct {
	Submenu string
	Entry   string
}

// labels scoring below this are never picked
const menuMatchThreshold = 0.85

func menuLabel(item *goquery.Selection) string {
	link := item.ChildrenFiltered("a").First()
	text := link.Find(cssMenuLabel).First().Text()
	if text == "" {
		text = link.Text()
	}
	return htmlutil.Fold(text)
}

// findMenuItem returns the item of items whose label is want. When no label
// is equal, the closest one by Jaro-Winkler distance is used.
func (c *Client) findMenuItem(items *goquery.Selection, want string) (*goquery.Selection, error) {
	want = htmlutil.Fold(want)

	var best *goquery.Selection
	bestLabel := ""
	bestScore := 0.0
	for i := range items.Nodes {
		item := items.Eq(i)
		label := menuLabel(item)
		if label == want {
			return item, nil
		}
		score := matchr.JaroWinkler(label, want, false)
		if score > bestScore {
			best = item
			bestLabel = label
			bestScore = score
		}
	}

	if best == nil || bestScore < menuMatchThreshold {
		return nil, fmt.Errorf("%w: menu item %q", ErrTokenNotFound, want)
	}
	c.tel.ReportWarning(report_client_match_menu, fmt.Sprintf("%q matched %q approximately", want, bestLabel), bestScore)
	return best, nil
}
