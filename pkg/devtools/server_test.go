package devtools_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vango-dev/fluxe"
	"github.com/vango-dev/fluxe/internal/demo"
	"github.com/vango-dev/fluxe/pkg/devtools"
	"github.com/vango-dev/fluxe/pkg/middleware"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newServer(t *testing.T) (*fluxe.Fluxe, *devtools.Server, *demo.Counter, *demo.Todos, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(middleware.WithRegistry(reg))

	f := fluxe.New(fluxe.Config{Logger: quietLogger()})
	c, todos, err := demo.Register(f)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	metrics.TrackStores(f.Len)

	dt := devtools.New(f, devtools.Config{Logger: quietLogger(), Gatherer: reg})
	f.Dispatcher().Use(dt.Middleware(), metrics.Middleware())
	return f, dt, c, todos, reg
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListStores(t *testing.T) {
	_, dt, c, _, _ := newServer(t)
	c.Subscribe(demo.EventChange, func(...any) {})

	rec := do(t, dt.Handler(), http.MethodGet, "/stores", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var infos []devtools.StoreInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &infos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(infos) != 2 || infos[0].ID != demo.CounterID || infos[1].ID != demo.TodosID {
		t.Fatalf("stores = %+v", infos)
	}
	if got := strings.Join(infos[0].Events, ","); got != "increment,decrement,reset" {
		t.Errorf("counter events = %s", got)
	}
	if infos[0].Listeners[demo.EventChange] != 1 {
		t.Errorf("counter listeners = %v", infos[0].Listeners)
	}
	if infos[0].State != nil {
		t.Errorf("list includes state: %v", infos[0].State)
	}
}

func TestGetStore(t *testing.T) {
	_, dt, _, _, _ := newServer(t)

	rec := do(t, dt.Handler(), http.MethodGet, "/stores/counter", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"state":{"count":0}`) {
		t.Errorf("body = %s", rec.Body)
	}

	rec = do(t, dt.Handler(), http.MethodGet, "/stores/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing store status = %d", rec.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["code"] != "F010" || body["store"] != "missing" {
		t.Errorf("error body = %s", rec.Body)
	}
}

func TestInvokeAction(t *testing.T) {
	_, dt, c, todos, _ := newServer(t)
	h := dt.Handler()

	rec := do(t, h, http.MethodPost, "/stores/counter/actions/increment", "5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if c.Count() != 5 {
		t.Errorf("count = %d, want 5", c.Count())
	}

	rec = do(t, h, http.MethodPost, "/stores/todos/actions/add", `{"title":"milk"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if items := todos.Items(); len(items) != 1 || items[0].Title != "milk" {
		t.Errorf("items = %+v", items)
	}
}

func TestInvokeAction_Errors(t *testing.T) {
	_, dt, _, _, _ := newServer(t)
	h := dt.Handler()

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown store", "/stores/missing/actions/add", "", http.StatusNotFound},
		{"unknown action", "/stores/counter/actions/explode", "", http.StatusNotFound},
		{"malformed body", "/stores/todos/actions/add", "{", http.StatusBadRequest},
		{"handler error", "/stores/todos/actions/add", `{"title":""}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	_, dt, _, _, _ := newServer(t)
	h := dt.Handler()
	do(t, h, http.MethodPost, "/stores/counter/actions/increment", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`fluxe_dispatches_total{event="increment",status="success",store="counter"} 1`,
		"fluxe_stores 2",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestMetricsRoute_NotMountedWithoutGatherer(t *testing.T) {
	f := fluxe.New(fluxe.Config{Logger: quietLogger()})
	dt := devtools.New(f, devtools.Config{})

	if rec := do(t, dt.Handler(), http.MethodGet, "/metrics", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestStream(t *testing.T) {
	f, dt, _, _, _ := newServer(t)
	ts := httptest.NewServer(dt.Handler())
	defer ts.Close()
	defer dt.Stream().Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var hello devtools.Message
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello.Type != devtools.MessageHello || len(hello.Stores) != 2 {
		t.Fatalf("hello = %+v", hello)
	}

	// The client is registered after the hello is written.
	deadline := time.Now().Add(2 * time.Second)
	for dt.Stream().ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(time.Millisecond)
	}

	actions, _ := f.Actions(demo.CounterID)
	if err := actions.Invoke(context.Background(), "increment", nil); err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	var msg devtools.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read dispatch: %v", err)
	}
	if msg.Type != devtools.MessageDispatch || msg.Status != "success" {
		t.Fatalf("message = %+v", msg)
	}
	if msg.Payload == nil || msg.Payload.Store != demo.CounterID || msg.Payload.Event != "increment" || msg.Payload.ID == "" {
		t.Errorf("payload = %+v", msg.Payload)
	}
}

func TestMiddleware_NoClientsPassesThrough(t *testing.T) {
	f, _, c, _, _ := newServer(t)

	actions, _ := f.Actions(demo.CounterID)
	if err := actions.Invoke(context.Background(), "increment", nil); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if c.Count() != 1 {
		t.Errorf("count = %d", c.Count())
	}
}

