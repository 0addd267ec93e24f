package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"github.com/user/foodlog/internal/errors"
	"github.com/user/foodlog/internal/logging"
	"github.com/user/foodlog/internal/nutrition"
	"github.com/user/foodlog/internal/storage"
)

// Client-facing messages. Internal and provider detail never reaches a response body.
const (
	MsgInvalidJSON   = "Invalid JSON body"
	MsgTextFailed    = "Failed to process macros."
	MsgProfileFailed = "Failed to calculate macros. Try again."
	MsgPhotoFailed   = "Failed to process the photo."
	MsgPhotoTooLarge = "Uploaded file is too large."
	MsgInternalError = "Internal server error"
)

const (
	photoField            = "photo"
	defaultMaxUploadBytes = 10 << 20
)

// Estimator runs the nutrition pipeline
type Estimator interface {
	Estimate(ctx context.Context, input nutrition.MealDescription, mode nutrition.Mode) (*nutrition.Estimate, error)
}

// NutritionHandler serves the estimate routes
type NutritionHandler struct {
	*BaseHandler
	estimator      Estimator
	uploader       storage.Uploader // nil when object storage is disabled
	maxUploadBytes int64
}

// NewNutritionHandler creates a handler. A nil uploader sends photos inline as data URLs.
func NewNutritionHandler(estimator Estimator, uploader storage.Uploader, maxUploadBytes int64, logger *logging.Logger) *NutritionHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &NutritionHandler{
		BaseHandler:    NewBaseHandler(logger.Named("handlers")),
		estimator:      estimator,
		uploader:       uploader,
		maxUploadBytes: maxUploadBytes,
	}
}

// MacrosFromText handles POST /macros-from-text {"text": "..."}
func (h *NutritionHandler) MacrosFromText(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeObject(w, r)
	if !ok {
		return
	}

	text, _ := body["text"].(string)
	if strings.TrimSpace(text) == "" {
		h.WriteError(w, http.StatusBadRequest, nutrition.MsgTextRequired)
		return
	}

	h.respond(w, r, nutrition.MealDescription{Text: text}, nutrition.ModeText, MsgTextFailed)
}

// CalculateMacros handles POST /calculate-macros {"responses": ...}
func (h *NutritionHandler) CalculateMacros(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeObject(w, r)
	if !ok {
		return
	}

	responses, present := body["responses"]
	if !present || responses == nil {
		h.WriteError(w, http.StatusBadRequest, nutrition.MsgResponsesRequired)
		return
	}

	h.respond(w, r, nutrition.MealDescription{Responses: responses}, nutrition.ModeProfile, MsgProfileFailed)
}

// Vision handles POST /vision with a multipart "photo" field
func (h *NutritionHandler) Vision(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			h.WriteError(w, http.StatusBadRequest, MsgPhotoTooLarge)
			return
		}
		h.WriteError(w, http.StatusBadRequest, nutrition.MsgPhotoRequired)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(photoField)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, nutrition.MsgPhotoRequired)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		h.WriteError(w, http.StatusBadRequest, nutrition.MsgPhotoRequired)
		return
	}

	mime := nutrition.ImageMIME(data, header.Header.Get("Content-Type"))
	if mime == "" {
		h.WriteError(w, http.StatusBadRequest, nutrition.MsgPhotoNotImage)
		return
	}

	input := nutrition.MealDescription{ImageData: data, ImageMIME: mime}
	if h.uploader != nil {
		url, err := h.uploader.Upload(r.Context(), data, mime, header.Filename)
		if err != nil {
			h.Logger.Error("photo upload failed",
				logging.String("stage", string(errors.StageOf(err))),
				logging.String("kind", string(errors.KindOf(err))),
				logging.Error(err),
			)
			h.WriteError(w, errors.HTTPStatus(err), MsgPhotoFailed)
			return
		}
		input.ImageURL = url
	}

	h.respond(w, r, input, nutrition.ModeImage, MsgPhotoFailed)
}

// respond runs the pipeline and writes its result. The estimator has already
// logged any failure.
func (h *NutritionHandler) respond(w http.ResponseWriter, r *http.Request, input nutrition.MealDescription, mode nutrition.Mode, failureMessage string) {
	estimate, err := h.estimator.Estimate(r.Context(), input, mode)
	if err != nil {
		status := errors.HTTPStatus(err)
		message := failureMessage
		if status == http.StatusBadRequest {
			if base, ok := errors.AsFoodLogError(err); ok {
				message = base.Message
			}
		}
		h.WriteError(w, status, message)
		return
	}

	h.WriteJSON(w, http.StatusOK, estimate.Body())
}

// decodeObject reads a JSON object body. An empty body decodes to an empty object.
func (h *NutritionHandler) decodeObject(w http.ResponseWriter, r *http.Request) (map[string]interface{}, bool) {
	body := map[string]interface{}{}

	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil && !stderrors.Is(err, io.EOF) {
		h.WriteError(w, http.StatusBadRequest, MsgInvalidJSON)
		return nil, false
	}
	if body == nil {
		body = map[string]interface{}{}
	}
	return body, true
}
