package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/yovohub/hub/internal/models"
	"github.com/yovohub/hub/internal/services"
	"github.com/yovohub/hub/internal/services/ai"
)

const (
	maxSubmissionFiles  = 5
	maxSubmissionMemory = 16 << 20
)

type MiniProjectHandler struct {
	projectService services.MiniProjectServiceInterface
}

func NewMiniProjectHandler(projectService services.MiniProjectServiceInterface) *MiniProjectHandler {
	return &MiniProjectHandler{projectService: projectService}
}

type DataResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    any            `json:"data"`
	Badges  []models.Badge `json:"badges,omitempty"`
}

func writeMiniProjectError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case writeValidationError(w, err):
	case errors.Is(err, services.ErrMiniProjectNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, services.ErrSelfReview):
		writeError(w, http.StatusForbidden, "Vous ne pouvez pas évaluer votre propre mini-projet")
	case errors.Is(err, ai.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "count must be between 1 and 5")
	default:
		writeInternalError(w, r, "Error processing mini-project", err)
	}
}

func (h *MiniProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	projects, err := h.projectService.List(r.Context(), user.ID, r.URL.Query().Get("status"))
	if err != nil {
		writeMiniProjectError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Success: true, Data: projects})
}

type CreateMiniProjectRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	Duration        string   `json:"duration"`
	IsPaid          bool     `json:"is_paid"`
	Amount          *string  `json:"amount"`
	Skills          []string `json:"skills"`
	Location        string   `json:"location"`
	DifficultyLevel string   `json:"difficulty_level"`
}

func (h *MiniProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateMiniProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	difficulty, ok := models.ParseDifficulty(req.DifficultyLevel)
	if !ok {
		difficulty = models.Difficulty(req.DifficultyLevel)
	}

	project, err := h.projectService.Create(r.Context(), models.CreateMiniProjectParams{
		UserID:          user.ID,
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Duration:        req.Duration,
		IsPaid:          req.IsPaid,
		Amount:          req.Amount,
		Skills:          req.Skills,
		Location:        req.Location,
		DifficultyLevel: difficulty,
	})
	if err != nil {
		writeMiniProjectError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, DataResponse{Success: true, Message: "Mini-projet créé avec succès", Data: project})
}

func (h *MiniProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "Mini-projet non trouvé")
	if !ok {
		return
	}

	project, err := h.projectService.Get(r.Context(), user.ID, id)
	if err != nil {
		writeMiniProjectError(w, r, err, "Mini-projet non trouvé")
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Success: true, Data: project})
}

func (h *MiniProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "Mini-projet non trouvé ou ne peut pas être supprimé")
	if !ok {
		return
	}

	if err := h.projectService.Delete(r.Context(), user.ID, id); err != nil {
		writeMiniProjectError(w, r, err, "Mini-projet non trouvé ou ne peut pas être supprimé")
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Success: true, Message: "Mini-projet supprimé avec succès"})
}

// Generate creates one mini-project per AI suggestion.
func (h *MiniProjectHandler) Generate(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req GenerateSuggestionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	count, ok := requestedCount(req)
	if !ok {
		writeError(w, http.StatusBadRequest, "count must be between 1 and 5")
		return
	}

	projects, err := h.projectService.GenerateFromSuggestions(r.Context(), user, count)
	if err != nil {
		writeMiniProjectError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Success: true, Message: "Suggestions générées avec succès", Data: projects})
}

func (h *MiniProjectHandler) Accept(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "Mini-projet non trouvé")
	if !ok {
		return
	}

	project, err := h.projectService.Accept(r.Context(), user.ID, id)
	if err != nil {
		writeMiniProjectError(w, r, err, "Mini-projet non trouvé")
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Success: true, Message: "Mini-projet accepté", Data: project})
}

// submissionFiles collects uploaded files from both the bracketed and plain field names.
func submissionFiles(form *multipart.Form) []*multipart.FileHeader {
	if form == nil {
		return nil
	}
	var files []*multipart.FileHeader
	files = append(files, form.File["submission_files[]"]...)
	files = append(files, form.File["submission_files"]...)
	return files
}

// Submit attaches a description and files to an in-progress mini-project.
func (h *MiniProjectHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "Mini-projet non trouvé ou non en cours")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionFiles*services.MaxSubmissionFileSize+(1<<20))
	if err := r.ParseMultipartForm(maxSubmissionMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := submissionFiles(r.MultipartForm)
	if len(headers) > maxSubmissionFiles {
		writeFieldError(w, "submission_files", "At most 5 files can be submitted")
		return
	}

	uploads := make([]services.SubmissionUpload, 0, len(headers))
	for _, fh := range headers {
		if err := services.ValidateSubmissionFile(fh.Filename, fh.Size); err != nil {
			writeValidationError(w, err)
			return
		}
		f, err := fh.Open()
		if err != nil {
			writeInternalError(w, r, "Error opening submission file", err)
			return
		}
		defer f.Close()

		contentType := fh.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		uploads = append(uploads, services.SubmissionUpload{
			Name:        fh.Filename,
			ContentType: contentType,
			Size:        fh.Size,
			Body:        f,
		})
	}

	description := strings.TrimSpace(r.FormValue("submission_description"))
	project, err := h.projectService.Submit(r.Context(), user.ID, id, description, uploads)
	if err != nil {
		writeMiniProjectError(w, r, err, "Mini-projet non trouvé ou non en cours")
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Success: true, Message: "Soumission effectuée avec succès", Data: project})
}

type ReviewMiniProjectRequest struct {
	ReviewFeedback string `json:"review_feedback"`
	ReviewScore    *int   `json:"review_score"`
}

func (h *MiniProjectHandler) Review(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "Mini-projet non trouvé ou non soumis")
	if !ok {
		return
	}

	var req ReviewMiniProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ReviewScore == nil {
		writeFieldError(w, "review_score", "review_score: is required")
		return
	}

	project, badges, err := h.projectService.Review(r.Context(), user.ID, id, models.ReviewMiniProjectParams{
		Feedback: req.ReviewFeedback,
		Score:    *req.ReviewScore,
	})
	if err != nil {
		writeMiniProjectError(w, r, err, "Mini-projet non trouvé ou non soumis")
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{
		Success: true,
		Message: "Évaluation effectuée avec succès",
		Data:    project,
		Badges:  badges,
	})
}
