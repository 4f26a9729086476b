package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rahul/kestrel/internal/event"
	"github.com/rahul/kestrel/internal/observability"
)

const wttrTwoDay = `{
	"weather": [
		{"maxtempC": "18", "mintempC": "9", "hourly": [{"weatherDesc": [{"value": "Sunny"}], "chanceofrain": "5"}]},
		{"maxtempC": "21", "mintempC": "12", "hourly": [{"weatherDesc": [{"value": "Partly cloudy"}], "chanceofrain": "30"}]}
	]
}`

type failFetcher struct{}

func (failFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

type stubInvoker struct {
	responses map[string]string
	calls     []string
}

func (s *stubInvoker) Invoke(ctx context.Context, tool string, args string) (string, error) {
	s.calls = append(s.calls, tool+" "+args)
	for key, resp := range s.responses {
		if strings.Contains(args, key) {
			return resp, nil
		}
	}
	return "ok", nil
}

func collectEmit(events *[]event.Event) EmitFunc {
	return func(ev event.Event) bool {
		*events = append(*events, ev)
		return true
	}
}

func newTestPipeline(t *testing.T, fetch Fetcher, tools Invoker, opts Options) *Pipeline {
	t.Helper()
	if tools == nil {
		tools = &stubInvoker{}
	}
	return New(fetch, tools, observability.NewLogger(), opts)
}

// failingServer serves 500 for every path.
func failingServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLookup_PrimarySuccess(t *testing.T) {
	wttr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, wttrTwoDay)
	}))
	defer wttr.Close()

	p := newTestPipeline(t, NewHTTPFetcher(5*time.Second), nil, Options{WttrBaseURL: wttr.URL})

	var events []event.Event
	res := p.Lookup(context.Background(), "Paris", "weather in Paris", collectEmit(&events))

	if !res.OK() {
		t.Fatalf("lookup failed: %s", res.Err)
	}
	for _, want := range []string{"Paris", "Partly cloudy", "High 21°C", "Low 12°C", "Chance of rain 30%"} {
		if !strings.Contains(res.Summary, want) {
			t.Errorf("summary missing %q: %s", want, res.Summary)
		}
	}
	if len(events) != 0 {
		t.Errorf("direct fetch should emit no tool events, got %d", len(events))
	}
}

func TestLookup_SecondaryFallback(t *testing.T) {
	wttr := failingServer(t)

	geocode := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": [{"latitude": 48.8566, "longitude": 2.3522}]}`)
	}))
	defer geocode.Close()

	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"daily": {
			"time": ["2000-01-01", "2000-01-02"],
			"weather_code": [0, 3],
			"temperature_2m_max": [15.0, 10.0],
			"temperature_2m_min": [7.0, 2.0],
			"precipitation_probability_max": [10, 40]
		}}`)
	}))
	defer forecast.Close()

	p := newTestPipeline(t, NewHTTPFetcher(5*time.Second), nil, Options{
		WttrBaseURL: wttr.URL,
		GeocodeURL:  geocode.URL,
		ForecastURL: forecast.URL,
	})

	var events []event.Event
	res := p.Lookup(context.Background(), "Paris", "weather in Paris", collectEmit(&events))

	if !res.OK() {
		t.Fatalf("lookup failed: %s", res.Err)
	}
	// Dates predate today, so tomorrow is absent and index 1 of the
	// two-entry series is selected.
	for _, want := range []string{"High 10°C", "Low 2°C", "Overcast", "Chance of rain 40%"} {
		if !strings.Contains(res.Summary, want) {
			t.Errorf("summary missing %q: %s", want, res.Summary)
		}
	}
}

func TestLookup_SecondaryPicksTomorrowByDate(t *testing.T) {
	wttr := failingServer(t)

	geocode := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": [{"latitude": 1.0, "longitude": 2.0}]}`)
	}))
	defer geocode.Close()

	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	dayAfter := time.Now().AddDate(0, 0, 2).Format("2006-01-02")
	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"daily": {
			"time": ["%s", "%s"],
			"weather_code": [61, 0],
			"temperature_2m_max": [8.5, 20.0],
			"temperature_2m_min": [3.0, 11.0],
			"precipitation_probability_max": [80, 0]
		}}`, tomorrow, dayAfter)
	}))
	defer forecast.Close()

	p := newTestPipeline(t, NewHTTPFetcher(5*time.Second), nil, Options{
		WttrBaseURL: wttr.URL,
		GeocodeURL:  geocode.URL,
		ForecastURL: forecast.URL,
	})

	var events []event.Event
	res := p.Lookup(context.Background(), "Lyon", "weather in Lyon", collectEmit(&events))

	if !res.OK() {
		t.Fatalf("lookup failed: %s", res.Err)
	}
	// Tomorrow sits at index 0 here, so index-1 defaulting must not win.
	for _, want := range []string{"High 8.5°C", "Slight rain", "Chance of rain 80%"} {
		if !strings.Contains(res.Summary, want) {
			t.Errorf("summary missing %q: %s", want, res.Summary)
		}
	}
}

func TestLookup_BrowserFallback(t *testing.T) {
	failing := failingServer(t)

	invoker := &stubInvoker{responses: map[string]string{
		"console_exec": wttrTwoDay,
	}}
	p := newTestPipeline(t, failFetcher{}, invoker, Options{
		WttrBaseURL: "https://wttr.example",
		GeocodeURL:  failing.URL,
		ForecastURL: failing.URL,
	})

	var events []event.Event
	res := p.Lookup(context.Background(), "Paris", "weather in Paris", collectEmit(&events))

	if !res.OK() {
		t.Fatalf("lookup failed: %s", res.Err)
	}
	if !strings.Contains(res.Summary, "Partly cloudy") {
		t.Errorf("summary not built from browser payload: %s", res.Summary)
	}

	// The browser strategy surfaces its side effects as paired tool
	// events: notify, navigate, console_exec.
	var fns []string
	calling, called := 0, 0
	for _, ev := range events {
		te, ok := ev.(event.ToolEvent)
		if !ok {
			t.Fatalf("unexpected event type %T", ev)
		}
		switch te.Status {
		case event.ToolCalling:
			calling++
			fns = append(fns, te.FunctionName)
		case event.ToolCalled:
			called++
		}
	}
	if calling != called {
		t.Errorf("unpaired tool events: %d calling vs %d called", calling, called)
	}
	wantFns := []string{"message_notify_user", "navigate", "console_exec"}
	if len(fns) != len(wantFns) {
		t.Fatalf("function sequence %v, want %v", fns, wantFns)
	}
	for i := range wantFns {
		if fns[i] != wantFns[i] {
			t.Errorf("function[%d] = %s, want %s", i, fns[i], wantFns[i])
		}
	}
}

func TestLookup_BrowserViewFallback(t *testing.T) {
	failing := failingServer(t)

	// console_exec yields garbage; the rendered page view carries the
	// payload embedded in other text.
	invoker := &stubInvoker{responses: map[string]string{
		"console_exec": "undefined",
		"view":         "some page chrome " + wttrTwoDay + " trailing",
	}}
	p := newTestPipeline(t, failFetcher{}, invoker, Options{
		WttrBaseURL: "https://wttr.example",
		GeocodeURL:  failing.URL,
		ForecastURL: failing.URL,
	})

	var events []event.Event
	res := p.Lookup(context.Background(), "Paris", "weather in Paris", collectEmit(&events))
	if !res.OK() {
		t.Fatalf("lookup failed: %s", res.Err)
	}
	if !strings.Contains(res.Summary, "Partly cloudy") {
		t.Errorf("summary not built from page content: %s", res.Summary)
	}
}

func TestLookup_AllStrategiesFail(t *testing.T) {
	failing := failingServer(t)

	invoker := &stubInvoker{responses: map[string]string{
		"console_exec": "not json",
		"view":         "still not json",
	}}
	p := newTestPipeline(t, failFetcher{}, invoker, Options{
		WttrBaseURL: "https://wttr.example",
		GeocodeURL:  failing.URL,
		ForecastURL: failing.URL,
	})

	var events []event.Event
	res := p.Lookup(context.Background(), "Paris", "weather in Paris", collectEmit(&events))

	if res.OK() {
		t.Fatal("expected failure when every strategy fails")
	}
	if res.Err != FailureMessage(LocaleEN) {
		t.Errorf("failure message = %q, want %q", res.Err, FailureMessage(LocaleEN))
	}
	if res.Forecast != nil || res.Summary != "" {
		t.Error("failure result must carry no payload")
	}

	res = p.Lookup(context.Background(), "北京", "北京明天天气", collectEmit(&events))
	if res.Err != FailureMessage(LocaleZH) {
		t.Errorf("zh failure message = %q, want %q", res.Err, FailureMessage(LocaleZH))
	}
}

func TestParseWttr_SingletonSeries(t *testing.T) {
	body := `{"weather": [{"maxtempC": "5", "mintempC": "-2", "hourly": []}]}`
	f, err := parseWttr([]byte(body))
	if err != nil {
		t.Fatalf("parseWttr failed: %v", err)
	}
	if f.MaxTemp != "5" || f.MinTemp != "-2" {
		t.Errorf("singleton series not used: %+v", f)
	}
	if f.Condition != "" || f.RainChance != "" {
		t.Errorf("fields invented from empty hourly: %+v", f)
	}
}

func TestParseWttr_EmptySeries(t *testing.T) {
	if _, err := parseWttr([]byte(`{"weather": []}`)); err == nil {
		t.Error("expected error for empty series")
	}
	if _, err := parseWttr([]byte(`plain text`)); err == nil {
		t.Error("expected error for non-JSON body")
	}
}
