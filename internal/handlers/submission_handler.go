package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"market-admin/internal/middleware"
	"market-admin/internal/models"
	"market-admin/internal/services"
	"market-admin/internal/storage"
	"market-admin/internal/validation"
	"market-admin/pkg/utils"
)

type SubmissionService interface {
	List(ctx context.Context, f models.SubmissionFilter) ([]*models.ItemSubmission, error)
	Get(ctx context.Context, id string) (*models.ItemSubmission, error)
	Approve(ctx context.Context, actor services.Actor, id, notes string, expectedVersion *int) (*models.ItemSubmission, error)
	Reject(ctx context.Context, actor services.Actor, id, notes string, expectedVersion *int) (*models.ItemSubmission, error)
	Reopen(ctx context.Context, actor services.Actor, id string, expectedVersion *int) (*models.ItemSubmission, error)
}

type SubmissionImages interface {
	AddSubmissionImage(ctx context.Context, actor services.Actor, submissionID string, data []byte) (*models.ItemSubmission, error)
}

type SubmissionHandler struct {
	Service SubmissionService
	Images  SubmissionImages
	logger  *logrus.Logger
}

func NewSubmissionHandler(service SubmissionService, images SubmissionImages, logger *logrus.Logger) *SubmissionHandler {
	return &SubmissionHandler{Service: service, Images: images, logger: logger}
}

const submissionNotFound = "Submission not found"

type reviewRequest struct {
	AdminNotes string `json:"admin_notes"`
	Version    *int   `json:"version"`
}

func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.Service.List(r.Context(), models.SubmissionFilter{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
	})
	if err != nil {
		writeError(w, h.logger, err, submissionNotFound, "Failed to fetch submissions")
		return
	}
	if subs == nil {
		subs = []*models.ItemSubmission{}
	}
	utils.JSON(w, http.StatusOK, subs)
}

func (h *SubmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sub, err := h.Service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err, submissionNotFound, "Failed to fetch submission")
		return
	}
	setETag(w, sub.Version)
	utils.JSON(w, http.StatusOK, sub)
}

func (h *SubmissionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.Service.Approve, "Failed to approve submission")
}

func (h *SubmissionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.Service.Reject, "Failed to reject submission")
}

func (h *SubmissionHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, func(ctx context.Context, actor services.Actor, id, _ string, version *int) (*models.ItemSubmission, error) {
		return h.Service.Reopen(ctx, actor, id, version)
	}, "Failed to reopen submission")
}

type reviewFunc func(ctx context.Context, actor services.Actor, id, notes string, expectedVersion *int) (*models.ItemSubmission, error)

// review decodes an optional body; approve and reopen may be posted empty.
func (h *SubmissionHandler) review(w http.ResponseWriter, r *http.Request, fn reviewFunc, fallback string) {
	var req reviewRequest
	if r.ContentLength != 0 {
		if err := validation.DecodeStrict(r.Body, &req); err != nil {
			badRequest(w, err.Error())
			return
		}
	}
	version, ok := expectedVersion(r, req.Version)
	if !ok {
		badRequest(w, "Invalid If-Match header")
		return
	}
	sub, err := fn(r.Context(), middleware.Actor(r), mux.Vars(r)["id"], req.AdminNotes, version)
	if err != nil {
		writeError(w, h.logger, err, submissionNotFound, fallback)
		return
	}
	setETag(w, sub.Version)
	utils.JSON(w, http.StatusOK, sub)
}

func (h *SubmissionHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.Images == nil {
		utils.Error(w, http.StatusServiceUnavailable, "Image storage is not configured")
		return
	}
	data, ok := readUpload(w, r, storage.MaxSubmissionImageSize)
	if !ok {
		return
	}
	sub, err := h.Images.AddSubmissionImage(r.Context(), middleware.Actor(r), mux.Vars(r)["id"], data)
	if err != nil {
		writeError(w, h.logger, err, submissionNotFound, "Failed to upload image")
		return
	}
	utils.JSON(w, http.StatusCreated, sub)
}
