package aurion

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
)

// FetchSchedule walks from the portal's main menu to the schedule of userID
// and returns the partial response holding its events for rng.
func (c *Client) FetchSchedule(ctx context.Context, userID string, rng Range) (Schedule, error) {
	err := rng.Validate()
	if err != nil {
		return Schedule{}, err
	}

	sess, err := c.loadRoot(ctx)
	if err != nil {
		return Schedule{}, err
	}
	sess, err = c.expandMenu(ctx, sess)
	if err != nil {
		return Schedule{}, err
	}
	sess, err = c.selectEntry(ctx, sess)
	if err != nil {
		return Schedule{}, err
	}
	sess, err = c.selectCalendar(ctx, sess, userID)
	if err != nil {
		return Schedule{}, err
	}
	body, err := c.fetchEvents(ctx, sess, rng)
	if err != nil {
		return Schedule{}, err
	}

	return Schedule{
		UserID:      userID,
		DisplayName: sess.DisplayName,
		ContainerID: sess.ContainerID,
		Body:        body,
	}, nil
}

// loadRoot opens the main menu and finds the sidebar submenu holding the
// schedule pages.
func (c *Client) loadRoot(ctx context.Context) (Session, error) {
	var sess Session
	err := c.step(ctx, report_client_load_root, func(ctx context.Context) error {
		res, err := c.send(ctx, request{
			method:  http.MethodGet,
			url:     "/",
			referer: c.portalURL("/"),
			origin:  c.portalOrigin(),
		})
		if err != nil {
			return err
		}
		doc, err := NewDocument(res.Body())
		if err != nil {
			return err
		}

		sess.ViewState, err = Extract(doc, selectorViewState)
		if err != nil {
			return err
		}

		item, err := c.findMenuItem(doc.Find(cssSubmenuItems), c.menu.Submenu)
		if err != nil {
			return err
		}
		submenu := doc.Sub(item)
		sess.MenuSource, err = Extract(submenu, selectorMenuSource)
		if err != nil {
			return err
		}
		sess.SubmenuID, err = Extract(submenu, selectorSubmenuID)
		return err
	})
	return sess, err
}

// expandMenu opens the submenu the way clicking on it does, the portal
// answers with the re-rendered sidebar.
func (c *Client) expandMenu(ctx context.Context, sess Session) (Session, error) {
	err := c.step(ctx, report_client_expand_menu, func(ctx context.Context) error {
		res, err := c.send(ctx, request{
			method:  http.MethodPost,
			url:     pathMainMenu,
			referer: c.portalURL("/"),
			origin:  c.portalOrigin(),
			ajax:    true,
			form: url.Values{
				"javax.faces.partial.ajax":       {"true"},
				"javax.faces.source":             {sess.MenuSource},
				"javax.faces.partial.execute":    {sess.MenuSource},
				"javax.faces.partial.render":     {updateSidebar},
				sess.MenuSource:                  {sess.MenuSource},
				"webscolaapp.Sidebar.ID_SUBMENU": {sess.SubmenuID},
				"form":                           {"form"},
				"form:largeurDivCenter":          {centerWidth},
				"form:sauvegarde":                {""},
				"javax.faces.ViewState":          {sess.ViewState},
			},
		})
		if err != nil {
			return err
		}

		partial, err := ParsePartialResponse(res.Body())
		if err != nil {
			return err
		}
		if viewState, ok := partial.ViewState(); ok {
			sess = sess.withViewState(viewState)
		}
		sidebar, ok := partial.Update(updateSidebar)
		if !ok {
			return fmt.Errorf("%w: %s", ErrContainerNotFound, updateSidebar)
		}
		doc, err := NewDocument([]byte(sidebar))
		if err != nil {
			return err
		}

		item, err := c.findMenuItem(doc.Find(cssMenuEntries), c.menu.Entry)
		if err != nil {
			return err
		}
		sess.MenuEntryID, err = Extract(doc.Sub(item), selectorMenuEntryID)
		return err
	}, attribute.String("submenu", sess.SubmenuID))
	return sess, err
}

// selectEntry submits the sidebar entry, which leads to the calendar picker.
func (c *Client) selectEntry(ctx context.Context, sess Session) (Session, error) {
	err := c.step(ctx, report_client_select_entry, func(ctx context.Context) error {
		res, err := c.send(ctx, request{
			method:  http.MethodPost,
			url:     pathMainMenu,
			referer: c.portalURL("/"),
			origin:  c.portalOrigin(),
			form: url.Values{
				"form":                  {"form"},
				"form:largeurDivCenter": {centerWidth},
				"form:sauvegarde":       {""},
				"javax.faces.ViewState": {sess.ViewState},
				"form:sidebar":          {"form:sidebar"},
				"form:sidebar_menuid":   {sess.MenuEntryID},
			},
		})
		if err != nil {
			return err
		}
		doc, err := NewDocument(res.Body())
		if err != nil {
			return err
		}

		viewState, err := Extract(doc, selectorViewState)
		if err != nil {
			return err
		}
		sess = sess.withViewState(viewState)

		sess.PickerTable, err = Extract(doc, selectorPickerTable)
		if err != nil {
			return err
		}
		sess.PickerFilters, err = ExtractAll(doc, selectorPickerFilters)
		if err != nil {
			return err
		}
		sess.PickerSubmit, err = Extract(doc, selectorPickerSubmit)
		return err
	}, attribute.String("entry", sess.MenuEntryID))
	return sess, err
}

// selectCalendar picks userID in the calendar picker and opens its schedule.
func (c *Client) selectCalendar(ctx context.Context, sess Session, userID string) (Session, error) {
	err := c.step(ctx, report_client_select_calendar, func(ctx context.Context) error {
		form := url.Values{
			"form":                  {"form"},
			"form:largeurDivCenter": {centerWidth},
		}
		for _, field := range pickerSearchFields {
			form.Set(field, "")
		}
		form.Set(sess.PickerTable+"_reflowDD", "0_0")
		for _, filter := range sess.PickerFilters {
			form.Set(filter, "")
		}
		form.Set(sess.PickerTable+"_checkbox", "on")
		form.Set(sess.PickerTable+"_selection", userID)
		form.Set(sess.PickerSubmit, "")
		form.Set("javax.faces.ViewState", sess.ViewState)

		res, err := c.send(ctx, request{
			method:  http.MethodPost,
			url:     pathChoixPlanning,
			referer: c.portalURL(pathChoixPlanning),
			origin:  c.portalOrigin(),
			form:    form,
		})
		if err != nil {
			return err
		}
		doc, err := NewDocument(res.Body())
		if err != nil {
			return err
		}

		viewState, err := Extract(doc, selectorViewState)
		if err != nil {
			return err
		}
		sess = sess.withViewState(viewState)

		sess.ContainerID, err = Extract(doc, selectorScheduleContainer)
		if err != nil {
			return err
		}
		sess.DisplayName, err = Extract(doc, selectorDisplayName)
		return err
	}, attribute.String("user", userID))
	return sess, err
}

// fetchEvents asks the schedule widget for every event in rng.
func (c *Client) fetchEvents(ctx context.Context, sess Session, rng Range) ([]byte, error) {
	var body []byte
	err := c.step(ctx, report_client_fetch_events, func(ctx context.Context) error {
		container := sess.ContainerID
		res, err := c.send(ctx, request{
			method:  http.MethodPost,
			url:     pathPlanning,
			referer: c.portalURL(pathPlanning),
			origin:  c.portalOrigin(),
			ajax:    true,
			form: url.Values{
				"javax.faces.partial.ajax":    {"true"},
				"javax.faces.source":          {container},
				"javax.faces.partial.execute": {container},
				"javax.faces.partial.render":  {container},
				container:                     {container},
				"form":                        {"form"},
				container + "_view":           {scheduleView},
				container + "_start":          {epochMillis(rng.Start)},
				container + "_end":            {epochMillis(rng.End)},
				"form:offsetFuseauNavigateur": {browserOffset(rng.Start)},
				"form:calendarDebut_input":    {""},
				"form:onglets_activeIndex":    {"0"},
				"form:onglets_scrollState":    {"0"},
				"form:largeurDivCenter":       {centerWidth},
				"javax.faces.ViewState":       {sess.ViewState},
			},
		})
		if err != nil {
			return err
		}
		body = res.Body()
		return nil
	}, attribute.String("container", sess.ContainerID))
	return body, err
}
