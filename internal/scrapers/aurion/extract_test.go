package aurion

import (
	"errors"
	"regexp"
	"testing"

	"aurioncal/internal/scrapers/aurion/fakeportal"

	"github.com/stretchr/testify/require"
)

func fixtureDocument(t testing.TB, name string) *Document {
	doc, err := NewDocument(fakeportal.Fixture(name))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestExtractFixtures(t *testing.T) {
	cases := []struct {
		fixture string
		sel     Selector
		want    string
	}{
		{"cas_login.html", selectorExecution, "__EXECUTION__"},
		{"root.html", selectorViewState, "__VIEW_STATE__"},
		{"choix_planning.html", selectorViewState, "__VIEW_STATE__"},
		{"choix_planning.html", selectorPickerTable, fakeportal.PickerTable},
		{"choix_planning.html", selectorPickerSubmit, fakeportal.PickerSubmit},
		{"planning.html", selectorScheduleContainer, fakeportal.Container},
		{"planning.html", selectorDisplayName, "__DISPLAY_NAME__"},
	}

	for _, c := range cases {
		t.Run(c.fixture+"/"+c.sel.Name, func(t *testing.T) {
			got, err := Extract(fixtureDocument(t, c.fixture), c.sel)
			require.NoError(t, err)
			require.Equal(t, c.want, got)
		})
	}
}

func TestExtractAllFilters(t *testing.T) {
	doc := fixtureDocument(t, "choix_planning.html")
	filters, err := ExtractAll(doc, selectorPickerFilters)
	require.NoError(t, err)
	require.Equal(t, fakeportal.PickerFilters, filters)
}

func TestExtractSubmenu(t *testing.T) {
	doc := fixtureDocument(t, "root.html")
	items := doc.Find(cssSubmenuItems)
	require.Equal(t, 3, items.Length())

	submenu := doc.Sub(items.Eq(1))
	source, err := Extract(submenu, selectorMenuSource)
	require.NoError(t, err)
	require.Equal(t, fakeportal.MenuSource, source)

	id, err := Extract(submenu, selectorSubmenuID)
	require.NoError(t, err)
	require.Equal(t, fakeportal.SubmenuID, id)
}

func TestExtractRawPattern(t *testing.T) {
	doc, err := NewDocument([]byte(`<script>var widget = "form:j_idt77";</script>`))
	require.NoError(t, err)

	got, err := Extract(doc, Selector{
		Name:    "widget",
		Pattern: regexp.MustCompile(`"(form:j_idt\d+)"`),
	})
	require.NoError(t, err)
	require.Equal(t, "form:j_idt77", got)
}

func TestExtractMismatch(t *testing.T) {
	doc := fixtureDocument(t, "planning.html")

	_, err := Extract(doc, selectorPickerTable)
	require.ErrorIs(t, err, ErrTokenNotFound)
	require.ErrorIs(t, err, ErrPageStructure)
	require.Contains(t, err.Error(), selectorPickerTable.Name)

	_, err = ExtractAll(doc, selectorPickerFilters)
	require.True(t, errors.Is(err, ErrTokenNotFound))

	// an element that is present but has no value does not count
	_, err = Extract(doc, Selector{Name: "empty", CSS: "div.ui-messages"})
	require.ErrorIs(t, err, ErrTokenNotFound)
}
