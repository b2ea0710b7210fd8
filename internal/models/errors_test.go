package models_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/models"
)

func TestAPIErrorError(t *testing.T) {
	tests := []struct {
		name        string
		err         *models.APIError
		expectedMsg string
	}{
		{
			name:        "error_with_description",
			err:         &models.APIError{Code: "invalid_request", Description: "period must be one of hour, day, week, month"},
			expectedMsg: "invalid_request: period must be one of hour, day, week, month",
		},
		{
			name:        "error_without_description",
			err:         &models.APIError{Code: "server_error"},
			expectedMsg: "server_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedMsg, tt.err.Error())
		})
	}
}

func TestAPIErrorConstructors(t *testing.T) {
	invalid := models.NewInvalidRequest("bad period")
	assert.Equal(t, "invalid_request", invalid.Code)
	assert.Equal(t, http.StatusBadRequest, invalid.StatusCode)

	server := models.NewServerError("boom")
	assert.Equal(t, "server_error", server.Code)
	assert.Equal(t, http.StatusInternalServerError, server.StatusCode)
}

func TestAPIErrorWithDescription(t *testing.T) {
	err := &models.APIError{Code: "invalid_request"}

	result := err.WithDescription("detailed must be true or false")

	assert.Equal(t, "detailed must be true or false", result.Description)
	assert.Same(t, err, result)
}
