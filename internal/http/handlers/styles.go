package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"studio/internal/credentials"
	"studio/internal/domain"
	"studio/internal/middleware"
	"studio/internal/providers/genai"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type styleGenerateRequest struct {
	Image       string `json:"image"`
	MIMEType    string `json:"mime_type"`
	StylePrompt string `json:"style_prompt"`
	Refinement  string `json:"refinement"`
}

func (req styleGenerateRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Image, validation.Required),
		validation.Field(&req.StylePrompt, validation.Required, validation.Length(1, 2000)),
		validation.Field(&req.MIMEType, validation.In("", "image/jpeg", "image/png", "image/webp")),
		validation.Field(&req.Refinement, validation.Length(0, 2000)),
	)
}

// StylesGenerate runs the synchronous style transform. The styled image comes
// back in the response body; nothing is queued or charged here.
func (a *App) StylesGenerate(w http.ResponseWriter, r *http.Request) {
	var req styleGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := req.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	imageBytes, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "image must be base64-encoded")
		return
	}
	mime := req.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}

	styled, err := a.Styles.GenerateStyle(r.Context(), genai.StyleRequest{
		Image:      imageBytes,
		MIMEType:   mime,
		Prompt:     req.StylePrompt,
		Refinement: req.Refinement,
		RequestID:  middleware.RequestIDFromContext(r.Context()),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoResult):
			a.error(w, http.StatusBadGateway, "provider_error", "model returned no image")
		case errors.Is(err, domain.ErrNoCredential), credentials.IsQuotaError(err):
			a.error(w, http.StatusServiceUnavailable, "provider_busy", "generation capacity exhausted, try again later")
		default:
			a.Log.Error().Err(err).Msg("style generation failed")
			a.error(w, http.StatusBadGateway, "provider_error", "style generation failed")
		}
		return
	}

	a.json(w, http.StatusOK, map[string]string{
		"image": base64.StdEncoding.EncodeToString(styled),
		"mime":  "image/png",
	})
}
