package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandlerExposesObservations(t *testing.T) {
	m := New()
	m.ObserveStage("extracting", 150*time.Millisecond, nil)
	m.ObserveStage("translating", time.Second, errors.New("boom"))
	m.ObserveOutcome("translated")
	m.ObserveOutcome("failed")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	body := string(b)

	for _, want := range []string{
		`translator_stage_duration_seconds_count{stage="extracting"} 1`,
		`translator_stage_errors_total{stage="translating"} 1`,
		`translator_iterations_total{outcome="translated"} 1`,
		`translator_iterations_total{outcome="failed"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
	if strings.Contains(body, `translator_stage_errors_total{stage="extracting"}`) {
		t.Error("successful stage should not count as error")
	}
}

func TestNewUsesPrivateRegistry(t *testing.T) {
	// Two instances must not collide on registration.
	_ = New()
	_ = New()
}
