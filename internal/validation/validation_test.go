package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSimulateEventRequest_Valid(t *testing.T) {
	v := New()

	req := SimulateEventRequest{
		EventID:    "e1",
		Type:       "user.created",
		OccurredAt: "2024-01-01T00:00:00Z",
		Source:     "crm",
		Data:       map[string]any{"user_id": "u1"},
	}
	if err := v.Struct(req); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}

	// Empty type is an unknown kind, not a validation failure.
	req.Type = ""
	if err := v.Struct(req); err != nil {
		t.Fatalf("expected empty type to be valid, got error: %v", err)
	}
}

func TestSimulateEventRequest_MissingFields(t *testing.T) {
	v := New()

	for name, req := range map[string]SimulateEventRequest{
		"no event_id":    {Data: map[string]any{}},
		"blank event_id": {EventID: "   ", Data: map[string]any{}},
		"no data":        {EventID: "e1"},
	} {
		if err := v.Struct(req); err == nil {
			t.Fatalf("%s: expected validation error, got nil", name)
		}
	}
}

func TestSimulateEventRequest_Event(t *testing.T) {
	req := SimulateEventRequest{EventID: "e1", Type: "x", OccurredAt: "t", Source: "s", Data: map[string]any{"k": "v"}}
	evt := req.Event()
	if evt.EventID != "e1" || evt.Type != "x" || evt.OccurredAt != "t" || evt.Source != "s" || evt.Data["k"] != "v" {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestBindAndValidate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := New()

	cases := []struct {
		body      string
		wantCode  int
		wantError string
	}{
		{`{"event_id":"e1","data":{}}`, http.StatusOK, ""},
		{`{not json`, http.StatusBadRequest, "invalid_request_body"},
		{`{"data":{}}`, http.StatusBadRequest, "validation_failed"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
		c.Request.Header.Set("Content-Type", "application/json")

		var req SimulateEventRequest
		err := BindAndValidate(c, &req, v)
		if tc.wantError == "" {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", tc.body, err)
			}
			continue
		}
		if err == nil || w.Code != tc.wantCode || !strings.Contains(w.Body.String(), tc.wantError) {
			t.Fatalf("%s: got code=%d body=%s err=%v", tc.body, w.Code, w.Body.String(), err)
		}
	}
}
