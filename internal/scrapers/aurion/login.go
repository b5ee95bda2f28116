package aurion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

func (c *Client) loginURL() string {
	return c.casURL(pathCASLogin) + "?" + url.Values{
		"service": {c.portalURL(pathCASService)},
	}.Encode()
}

// Authenticate logs into the portal through its CAS server, the session
// cookies are kept by the client.
func (c *Client) Authenticate(ctx context.Context, username, password string) error {
	return c.step(ctx, report_client_authenticate, func(ctx context.Context) error {
		// the portal redirects anonymous visitors to the CAS login form
		res, err := c.send(ctx, request{
			method: http.MethodGet,
			url:    "/",
		})
		if err != nil {
			return err
		}
		doc, err := NewDocument(res.Body())
		if err != nil {
			return err
		}
		execution, err := Extract(doc, selectorExecution)
		if err != nil {
			return err
		}

		res, err = c.send(ctx, request{
			method:  http.MethodPost,
			url:     c.loginURL(),
			referer: c.loginURL(),
			origin:  c.casOrigin(),
			form: url.Values{
				"username":    {username},
				"password":    {password},
				"execution":   {execution},
				"_eventId":    {"submit"},
				"geolocation": {""},
			},
		})
		// a rejected password is answered with 401, it stays a transport error
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %w", ErrLoginFailed, err)
		}
		if err != nil {
			return err
		}

		// a successful login lands back on the portal, a rejected one shows
		// the login form again
		doc, err = NewDocument(res.Body())
		if err != nil {
			return err
		}
		if _, err := Extract(doc, selectorExecution); err == nil {
			return ErrLoginFailed
		}

		c.tel.ReportDebug(report_client_authenticate, fmt.Sprintf("logged in as %s", username))
		return nil
	})
}
