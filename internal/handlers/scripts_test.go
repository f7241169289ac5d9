package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jwebster45206/clocktower-engine/pkg/character"
	"github.com/jwebster45206/clocktower-engine/pkg/storage"
)

func TestScriptHandler_List(t *testing.T) {
	handler := NewScriptHandler(testLogger(), storage.NewMockStorage())

	req := httptest.NewRequest(http.MethodGet, "/v1/scripts", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var scripts map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&scripts); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(scripts) == 0 {
		t.Error("Expected at least one script")
	}
}

func TestScriptHandler_Get(t *testing.T) {
	handler := NewScriptHandler(testLogger(), storage.NewMockStorage())

	req := httptest.NewRequest(http.MethodGet, "/v1/scripts/trouble_brewing", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var script character.Script
	if err := json.NewDecoder(rr.Body).Decode(&script); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if script.Name != "trouble_brewing" {
		t.Errorf("Expected trouble_brewing, got %s", script.Name)
	}
	if len(script.Townsfolk) == 0 || len(script.Demons) == 0 {
		t.Error("Expected script roles")
	}
}

func TestScriptHandler_Errors(t *testing.T) {
	handler := NewScriptHandler(testLogger(), storage.NewMockStorage())

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"not found", http.MethodGet, "/v1/scripts/bad_moon_rising.json", http.StatusNotFound},
		{"path traversal", http.MethodGet, "/v1/scripts/..%2Fsecrets.json", http.StatusBadRequest},
		{"wrong method", http.MethodPost, "/v1/scripts", http.StatusMethodNotAllowed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != tc.expectedStatus {
				t.Errorf("Expected status %d, got %d", tc.expectedStatus, rr.Code)
			}
		})
	}
}
