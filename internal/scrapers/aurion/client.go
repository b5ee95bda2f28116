package aurion

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"aurioncal/internal/components/telemetry"
	"aurioncal/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_client_authenticate    = "client.authenticate"
	report_client_load_root       = "client.load-root"
	report_client_expand_menu     = "client.expand-menu"
	report_client_select_entry    = "client.select-entry"
	report_client_select_calendar = "client.select-calendar"
	report_client_fetch_events    = "client.fetch-events"
	report_client_match_menu      = "client.match-menu"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type ClientOptions struct {
	PortalURL string
	CASURL    string
	UserAgent string
	Timeout   time.Duration
	Menu      MenuLabels
	Telemetry telemetry.API
	// Dump receives every HTTP exchange when set.
	Dump restyutil.Output
}

// Client talks to one Aurion portal. It keeps the cookies of a single
// authenticated session and is not safe for concurrent use.
type Client struct {
	http   *resty.Client
	portal *url.URL
	cas    *url.URL
	menu   MenuLabels
	tel    telemetry.API
	tracer trace.Tracer
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Telemetry == nil {
		opts.Telemetry = telemetry.SlogAPI{}
	}
	tel := telemetry.NewScopedAPI("aurion", opts.Telemetry)

	portal, err := url.Parse(strings.TrimSuffix(opts.PortalURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse portal url: %w", err)
	}
	cas, err := url.Parse(strings.TrimSuffix(opts.CASURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse cas url: %w", err)
	}
	if portal.Host == "" || cas.Host == "" {
		return nil, fmt.Errorf("portal and cas urls must be absolute")
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(portal.String())
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	httpClient.SetRedirectPolicy(
		resty.FlexibleRedirectPolicy(10),
		resty.DomainCheckRedirectPolicy(portal.Hostname(), cas.Hostname()),
	)
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}

	httpClient.SetHeader("User-Agent", userAgent)
	// the portal compares these against what a browser sends, they must not
	// be canonicalized
	httpClient.SetHeaderVerbatim("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3")
	httpClient.SetHeaderVerbatim("Accept-Language", "en-GB,en;q=0.9,en-US;q=0.8,fr;q=0.7")
	httpClient.SetHeaders(map[string]string{
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-User":            "?1",
		"Sec-Fetch-Site":            "same-origin",
		"Upgrade-Insecure-Requests": "1",
		"Cache-Control":             "max-age=0",
		"DNT":                       "1",
	})

	telemetry.InstrumentResty(httpClient, tel, opts.Dump)

	return &Client{
		http:   httpClient,
		portal: portal,
		cas:    cas,
		menu:   opts.Menu,
		tel:    tel,
		tracer: otel.Tracer("aurioncal/internal/scrapers/aurion"),
	}, nil
}

func (c *Client) portalURL(path string) string {
	return c.portal.String() + path
}

func (c *Client) casURL(path string) string {
	return c.cas.String() + path
}

func (c *Client) portalOrigin() string {
	return c.portal.Scheme + "://" + c.portal.Host
}

func (c *Client) casOrigin() string {
	return c.cas.Scheme + "://" + c.cas.Host
}

type request struct {
	method  string
	url     string
	referer string
	origin  string
	// partial AJAX request
	ajax bool
	form url.Values
}

// send performs r, a response outside of 2xx is returned as a *StatusError
// together with the response.
func (c *Client) send(ctx context.Context, r request) (*resty.Response, error) {
	req := c.http.R().SetContext(ctx)
	if r.referer != "" {
		req.SetHeader("Referer", r.referer)
	}
	if r.origin != "" {
		req.SetHeader("Origin", r.origin)
	}
	if r.ajax {
		req.SetHeader("Faces-Request", "partial/ajax")
		req.SetHeader("X-Requested-With", "XMLHttpRequest")
		req.SetHeaderVerbatim("Accept", "application/xml, text/xml, */*; q=0.01")
	}
	if r.form != nil {
		req.SetFormDataFromValues(r.form)
	}

	res, err := req.Execute(r.method, r.url)
	if err != nil {
		return nil, err
	}
	if !res.IsSuccess() {
		return res, &StatusError{
			Method:     r.method,
			URL:        res.Request.URL,
			StatusCode: res.StatusCode(),
			Status:     res.Status(),
		}
	}
	return res, nil
}

// step wraps one navigation step in a span and reports its failure.
func (c *Client) step(ctx context.Context, id string, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := c.tracer.Start(ctx, "aurion."+strings.TrimPrefix(id, "client."), trace.WithAttributes(attrs...))
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.tel.ReportBroken(id, err)
		return err
	}
	return nil
}
