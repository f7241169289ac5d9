package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jwebster45206/clocktower-engine/pkg/storage"
)

func TestHealthHandler(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	handler := NewHealthHandler(mockStorage, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Status != "healthy" {
		t.Errorf("Expected healthy, got %s", response.Status)
	}
	if response.Components["storage"] != "healthy" {
		t.Errorf("Expected healthy storage component, got %v", response.Components["storage"])
	}
}

func TestHealthHandler_Degraded(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	mockStorage.SetPingError(errors.New("connection refused"))
	handler := NewHealthHandler(mockStorage, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", rr.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Status != "degraded" {
		t.Errorf("Expected degraded, got %s", response.Status)
	}
}
