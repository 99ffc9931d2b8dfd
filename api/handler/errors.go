package handler

import (
	"net/http"

	"github.com/co-fun/mapscontacts/models"
)

// failure converts any error into the API error detail and its HTTP status.
func failure(err error) (*models.ErrorDetail, int) {
	se := models.AsScrapeError(err)
	return se.ToDetail(), statusFor(se)
}

// statusFor translates error codes to HTTP status codes.
func statusFor(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout, models.ErrCodeLLMTimeout:
		return http.StatusGatewayTimeout
	case models.ErrCodeNavigation, models.ErrCodeBrowserCrash,
		models.ErrCodeLLMFailure, models.ErrCodeTelegramFailure:
		return http.StatusBadGateway
	case models.ErrCodeInvalidInput, models.ErrCodeMissingCredentials:
		return http.StatusBadRequest
	case models.ErrCodeNotASearchPage:
		return http.StatusUnprocessableEntity
	case models.ErrCodeRateLimited, models.ErrCodeLLMRateLimited:
		return http.StatusTooManyRequests
	case models.ErrCodeUnauthorized, models.ErrCodeLLMAuthFailure:
		return http.StatusUnauthorized
	case models.ErrCodeJobNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func invalidInput(err error) *models.ErrorDetail {
	return &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: err.Error()}
}
