// Package weather implements the resilient forecast retrieval pipeline
// used when a step is recognized as a forecast request. Acquisition
// strategies are tried strictly in order — direct fetch, secondary
// provider, browser-mediated fetch, secondary retry — and every strategy
// failure is swallowed and logged so the pipeline degrades gracefully.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rahul/kestrel/internal/event"
	"github.com/rahul/kestrel/internal/observability"
)

// Fetcher is the bounded-timeout HTTP GET abstraction the pipeline uses
// for its direct and secondary strategies.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Invoker performs a one-shot tool invocation (browser, messaging).
type Invoker interface {
	Invoke(ctx context.Context, tool string, args string) (string, error)
}

// EmitFunc delivers an event to the step's consumer. It reports false
// when the consumer is gone and the pipeline should stop producing.
type EmitFunc func(ev event.Event) bool

// Result is the pipeline outcome: a rendered summary plus the winning
// payload, or a failure message — never both.
type Result struct {
	Summary  string
	Forecast *Forecast
	Err      string
}

// OK reports whether the lookup succeeded.
func (r Result) OK() bool { return r.Err == "" }

// HTTPFetcher is the default Fetcher: plain GET with one uniform timeout
// applied to every outbound call.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "curl/8.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Pipeline is the ordered fallback chain of forecast acquisition
// strategies.
type Pipeline struct {
	fetch       Fetcher
	tools       Invoker
	log         *observability.Logger
	wttrBase    string
	geocodeURL  string
	forecastURL string
}

// Options overrides the default source endpoints, mainly for tests.
type Options struct {
	WttrBaseURL string
	GeocodeURL  string
	ForecastURL string
}

func New(fetch Fetcher, tools Invoker, log *observability.Logger, opts Options) *Pipeline {
	p := &Pipeline{
		fetch:       fetch,
		tools:       tools,
		log:         log,
		wttrBase:    "https://wttr.in",
		geocodeURL:  "https://geocoding-api.open-meteo.com/v1/search",
		forecastURL: "https://api.open-meteo.com/v1/forecast",
	}
	if opts.WttrBaseURL != "" {
		p.wttrBase = opts.WttrBaseURL
	}
	if opts.GeocodeURL != "" {
		p.geocodeURL = opts.GeocodeURL
	}
	if opts.ForecastURL != "" {
		p.forecastURL = opts.ForecastURL
	}
	return p
}

// Lookup runs the fallback chain for one city and renders the winning
// payload in the locale implied by userText. It never returns an error;
// exhausting every strategy yields a Result carrying a single
// locale-consistent failure sentence.
func (p *Pipeline) Lookup(ctx context.Context, city, userText string, emit EmitFunc) Result {
	loc := DetectLocale(userText)

	if f, err := p.direct(ctx, city); err == nil {
		return p.success(f, city, loc)
	} else {
		p.log.LogRetrieval(city, "direct", err)
	}

	if f, err := p.secondary(ctx, city); err == nil {
		return p.success(f, city, loc)
	} else {
		p.log.LogRetrieval(city, "secondary", err)
	}

	if f, err := p.viaBrowser(ctx, city, loc, emit); err == nil {
		return p.success(f, city, loc)
	} else {
		p.log.LogRetrieval(city, "browser", err)
	}

	// Last resort: the secondary provider once more.
	if f, err := p.secondary(ctx, city); err == nil {
		return p.success(f, city, loc)
	} else {
		p.log.LogRetrieval(city, "secondary_retry", err)
	}

	return Result{Err: FailureMessage(loc)}
}

func (p *Pipeline) success(f *Forecast, city string, loc Locale) Result {
	return Result{Summary: Render(f, city, loc), Forecast: f}
}

// direct is strategy 1: a bounded-timeout GET against the primary source
// with a tolerant parse of the body.
func (p *Pipeline) direct(ctx context.Context, city string) (*Forecast, error) {
	body, err := p.fetch.Fetch(ctx, wttrURL(p.wttrBase, city))
	if err != nil {
		return nil, err
	}
	return parseWttr(body)
}

// call performs one tool invocation on behalf of the pipeline, surfacing
// it to the consumer as a paired calling/called tool event even though
// the pipeline owns the control flow.
func (p *Pipeline) call(ctx context.Context, emit EmitFunc, tool, fn, args string) (string, error) {
	id := uuid.NewString()
	if !emit(event.ToolEvent{
		Status:       event.ToolCalling,
		ToolCallID:   id,
		ToolName:     tool,
		FunctionName: fn,
		Arguments:    args,
	}) {
		return "", fmt.Errorf("consumer gone before %s", fn)
	}
	result, err := p.tools.Invoke(ctx, tool, args)
	if err != nil {
		result = fmt.Sprintf("Error: %v", err)
	}
	emit(event.ToolEvent{
		Status:       event.ToolCalled,
		ToolCallID:   id,
		ToolName:     tool,
		FunctionName: fn,
		Arguments:    args,
		Result:       result,
	})
	return result, err
}

// viaBrowser is strategy 3: navigate the automated browser to the primary
// source, re-fetch the same URL from inside the page, fall back to the
// rendered page content, and finally retry the direct fetch once.
func (p *Pipeline) viaBrowser(ctx context.Context, city string, loc Locale, emit EmitFunc) (*Forecast, error) {
	target := wttrURL(p.wttrBase, city)

	announce, _ := json.Marshal(map[string]string{
		"text": fmt.Sprintf(phrasebooks[loc].announce, target),
	})
	if _, err := p.call(ctx, emit, "message_notify_user", "message_notify_user", string(announce)); err != nil {
		return nil, err
	}

	navArgs, _ := json.Marshal(map[string]string{"action": "navigate", "url": target})
	if _, err := p.call(ctx, emit, "browser", "navigate", string(navArgs)); err != nil {
		return nil, err
	}

	jsArgs, _ := json.Marshal(map[string]string{
		"action":     "console_exec",
		"javascript": fmt.Sprintf("return fetch('%s').then(r => r.text());", target),
	})
	body, err := p.call(ctx, emit, "browser", "console_exec", string(jsArgs))
	if err == nil {
		if f, perr := parseWttr([]byte(body)); perr == nil {
			return f, nil
		}
	}

	viewArgs, _ := json.Marshal(map[string]string{"action": "view"})
	body, err = p.call(ctx, emit, "browser", "view", string(viewArgs))
	if err == nil {
		if f, perr := parseWttr([]byte(body)); perr == nil {
			return f, nil
		}
	}

	// Network conditions may have changed while the browser was up.
	return p.direct(ctx, city)
}
