package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/oukeidos/skinscan/internal/apperrors"
)

// classifyGenerateError maps a failed analysis request to an apperrors kind
// whose message can be shown in the failure dialog.
func classifyGenerateError(err error) error {
	if err == nil {
		return nil
	}
	cause := fmt.Errorf("gemini skin analysis failed: %w", err)

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.New(apperrors.KindInvocation, "The skin analysis was stopped before it finished.", cause)
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return apperrors.New(apperrors.KindTransient, "Could not reach the analysis model. Please check your connection and try again.", cause)
	}

	switch code := gerr.Code; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return apperrors.New(apperrors.KindAuth,
			fmt.Sprintf("The analysis model refused the Gemini key (%d): please update it with `skinscan env setup --service gemini`.", code), cause)
	case code == http.StatusNotFound:
		return apperrors.New(apperrors.KindBadRequest, "Analysis model unavailable (404): check gemini.model in the config.", cause)
	case code == http.StatusRequestEntityTooLarge:
		return apperrors.New(apperrors.KindBadRequest, "Your photos are too large for the analysis model (413). Please retake them at a lower resolution.", cause)
	case code == http.StatusTooManyRequests:
		return apperrors.New(apperrors.KindRateLimit, "Too many scans right now (429). Please wait a minute and try again.", cause)
	case code >= 500:
		return apperrors.New(apperrors.KindTransient, fmt.Sprintf("The analysis model is temporarily unavailable (%d). Please try again.", code), cause)
	default:
		return apperrors.New(apperrors.KindBadRequest, fmt.Sprintf("The analysis model rejected the scan (%d). Please retake your photos.", code), cause)
	}
}
