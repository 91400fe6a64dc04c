package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"stuffbox-backend/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestHandleErrorStatus(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		emptyBody bool
	}{
		{"unauthenticated", services.ErrUnauthenticated, http.StatusUnauthorized, true},
		{"not found", fmt.Errorf("get stuff: %w", services.ErrNotFound), http.StatusNotFound, true},
		{"validation", &services.ValidationError{Fields: map[string]string{"title": "required"}}, http.StatusBadRequest, false},
		{"already liked", services.ErrAlreadyInRelation, http.StatusBadRequest, false},
		{"conflict", services.ErrConflict, http.StatusConflict, false},
		{"store down", services.ErrStoreUnavailable, http.StatusServiceUnavailable, false},
		{
			name: "partial failure caused by a missing row",
			err: &services.PartialFailureError{
				Op:        "delete_stuff",
				Step:      "stuff",
				Completed: []string{"answers", "questions"},
				Err:       fmt.Errorf("delete stuff: %w", services.ErrNotFound),
			},
			status: http.StatusInternalServerError,
		},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handleError(w, httptest.NewRequest(http.MethodGet, "/api/v1/stuff", nil), tt.err)

			assert.Equal(t, tt.status, w.Code)
			if tt.emptyBody {
				assert.Empty(t, w.Body.String())
			} else {
				assert.NotEmpty(t, w.Body.String())
			}
		})
	}
}
