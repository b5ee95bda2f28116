package aurion

import "regexp"

// Every identifier the navigation sequence reads off a page is described here,
// when the portal's markup changes only this file should need an update.

var (
	selectorExecution = Selector{
		Name: "cas execution",
		CSS:  `input[name="execution"]`,
		Attr: "value",
	}
	selectorViewState = Selector{
		Name: "view state",
		CSS:  `input[name="javax.faces.ViewState"]`,
		Attr: "value",
	}

	// applied to a single sidebar submenu item
	selectorMenuSource = Selector{
		Name:    "sidebar menu source",
		CSS:     "a",
		Attr:    "onclick",
		Pattern: regexp.MustCompile(`s:"(form:[^"]+)"`),
	}
	selectorSubmenuID = Selector{
		Name:    "sidebar submenu id",
		Attr:    "class",
		Pattern: regexp.MustCompile(`\b(submenu_\d+)\b`),
	}
	// applied to a single sidebar entry
	selectorMenuEntryID = Selector{
		Name:    "sidebar menu entry id",
		CSS:     "a",
		Attr:    "onclick",
		Pattern: regexp.MustCompile(`'form:sidebar_menuid'\s*:\s*'([^']+)'`),
	}

	selectorPickerTable = Selector{
		Name: "calendar picker table",
		CSS:  "div.ui-datatable",
		Attr: "id",
	}
	selectorPickerFilters = Selector{
		Name: "calendar picker filters",
		CSS:  "div.ui-datatable input.ui-column-filter",
		Attr: "name",
	}
	selectorPickerSubmit = Selector{
		Name: "calendar picker submit",
		CSS:  `button[type="submit"]`,
		Attr: "id",
	}

	selectorScheduleContainer = Selector{
		Name: "schedule container",
		CSS:  "div.schedule",
		Attr: "id",
	}
	selectorDisplayName = Selector{
		Name: "current user",
		CSS:  "div.divCurrentUser",
	}
)

const (
	cssSubmenuItems = "li.ui-menu-parent"
	cssMenuEntries  = "li.ui-menuitem:not(.ui-menu-parent)"
	cssMenuLabel    = "span.ui-menuitem-text"

	updateSidebar   = "form:sidebar"
	viewStateUpdate = "javax.faces.ViewState"

	pathMainMenu      = "/faces/MainMenuPage.xhtml"
	pathChoixPlanning = "/faces/ChoixPlanning.xhtml"
	pathPlanning      = "/faces/Planning.xhtml"
	pathCASLogin      = "/login"
	pathCASService    = "/login/cas"

	// width of the center pane reported by the browser, the portal only
	// checks that it is present
	centerWidth  = "1603"
	scheduleView = "month"
)

// the calendar picker's search panel, submitted empty
var pickerSearchFields = []string{
	"form:search-texte",
	"form:search-texte-avancer",
	"form:input-expression-exacte",
	"form:input-un-des-mots",
	"form:input-aucun-des-mots",
	"form:input-nombre-debut",
	"form:input-nombre-fin",
	"form:calendarDebut_input",
	"form:calendarFin_input",
}
