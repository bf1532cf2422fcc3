package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
)

func TestParsePaginationQuery(t *testing.T) {
	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"limit=50", 50, false},
		{"", 0, false},
		{"limit=0", 0, false},
		{"limit=invalid", 0, true},
		{"limit=-3", 0, true},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/accounts", nil)
		req.URL = &url.URL{Path: "/accounts", RawQuery: tt.query}

		got, err := parsePaginationQuery(req, "limit")
		if tt.wantErr {
			if !errors.Is(err, dto.ErrInvalidRequest) {
				t.Fatalf("query %q: expected invalid request, got %v", tt.query, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("query %q: got %d, %v; want %d", tt.query, got, err, tt.want)
		}
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"account not found", domain.ErrAccountNotFound, http.StatusNotFound},
		{"insufficient funds", domain.ErrInsufficientFunds, http.StatusBadRequest},
		{"same account", domain.ErrSameAccount, http.StatusBadRequest},
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest},
		{"wrapped precision", fmt.Errorf("%w: at most 2", domain.ErrInvalidAmountPrecision), http.StatusBadRequest},
		{"below minimum", domain.ErrBelowMinimumBalance, http.StatusBadRequest},
		{"balance too large", domain.ErrBalanceTooLarge, http.StatusBadRequest},
		{"bad request body", dto.ErrInvalidRequest, http.StatusBadRequest},
		{"storage", domain.NewStorageError("commit", errors.New("conn reset")), http.StatusServiceUnavailable},
		{"retry deadline", domain.NewStorageError("retry", context.DeadlineExceeded), http.StatusServiceUnavailable},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	payload := map[string]string{"status": "ok"}

	writeJSON(rr, http.StatusCreated, payload)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %s", ct)
	}

	var decoded map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if decoded["status"] != "ok" {
		t.Fatalf("expected payload to round-trip, got %+v", decoded)
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()

	writeError(rr, http.StatusBadRequest, "bad request", "detail")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if resp.Error != "bad request" {
		t.Fatalf("expected error message to propagate, got %+v", resp)
	}
}

func TestWriteDomainErrorHidesInternalDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	writeDomainError(rr, req, "failed", errors.New("secret driver detail"))

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if rr.Code != http.StatusInternalServerError || resp.Message != "" {
		t.Fatalf("expected opaque 500, got %d %+v", rr.Code, resp)
	}
}
