package trustpositif

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nawalabot/internal/model"
	"nawalabot/pkg/logx"
)

func TestClassify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
		want model.Status
	}{
		{name: "blocked", body: "<td>Ada</td>", want: model.StatusBlocked},
		{name: "blocked upper", body: "ADA", want: model.StatusBlocked},
		{name: "safe", body: "<td>Tidak Ada</td>", want: model.StatusSafe},
		{name: "safe mixed case", body: "tidak ada", want: model.StatusSafe},
		{name: "both markers", body: "Ada ... Tidak Ada", want: model.StatusError},
		{name: "neither marker", body: "<html>maintenance</html>", want: model.StatusError},
		{name: "empty", body: "", want: model.StatusError},
		{name: "ada inside word only", body: "berada di daftar", want: model.StatusBlocked},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.body); got != tt.want {
				t.Fatalf("Classify(%q) = %s, want %s", tt.body, got, tt.want)
			}
		})
	}
}

func TestProbeStatuses(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		switch r.PostForm.Get("domain") {
		case "blocked.id":
			_, _ = w.Write([]byte("<td>Ada</td>"))
		case "safe.com":
			_, _ = w.Write([]byte("<td>Tidak Ada</td>"))
		default:
			_, _ = w.Write([]byte("<html>garbage</html>"))
		}
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, Timeout: 5 * time.Second}, logx.Nop())
	ctx := context.Background()

	if got := c.Probe(ctx, "blocked.id"); got.Status != model.StatusBlocked {
		t.Fatalf("blocked.id status = %s, detail = %q", got.Status, got.Detail)
	}
	if got := c.Probe(ctx, "safe.com"); got.Status != model.StatusSafe {
		t.Fatalf("safe.com status = %s, detail = %q", got.Status, got.Detail)
	}
	got := c.Probe(ctx, "weird.net")
	if got.Status != model.StatusError {
		t.Fatalf("weird.net status = %s, want ERROR", got.Status)
	}
	if got.Detail == "" {
		t.Fatal("ambiguous result should carry a detail string")
	}
}

func TestProbeTransportFailureIsData(t *testing.T) {
	t.Parallel()
	// Connection refused: the server is closed before probing.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(Config{URL: srv.URL, Timeout: time.Second}, logx.Nop())
	got := c.Probe(context.Background(), "example.com")
	if got.Status != model.StatusError {
		t.Fatalf("status = %s, want ERROR", got.Status)
	}
	if got.Detail == "" {
		t.Fatal("transport failure should carry a detail string")
	}
	if got.Domain != "example.com" {
		t.Fatalf("domain = %q", got.Domain)
	}
}

func TestProbeHTTPErrorStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, Timeout: time.Second}, logx.Nop())
	got := c.Probe(context.Background(), "example.com")
	if got.Status != model.StatusError {
		t.Fatalf("status = %s, want ERROR", got.Status)
	}
}

func TestProbeEmptyDomain(t *testing.T) {
	t.Parallel()
	c := New(Config{}, logx.Nop())
	got := c.Probe(context.Background(), "   ")
	if got.Status != model.StatusError {
		t.Fatalf("status = %s, want ERROR", got.Status)
	}
}
