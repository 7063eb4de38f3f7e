package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vendora/vendora-backend/internal/inventory/service"
	"github.com/vendora/vendora-backend/pkg/httputil"
	"github.com/vendora/vendora-backend/pkg/logger"
)

// ItemHandler handles vendor inventory item endpoints
type ItemHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(svc *service.InventoryService, log *logger.Logger) *ItemHandler {
	return &ItemHandler{
		service: svc,
		logger:  log,
	}
}

// List lists the vendor's inventory items
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	vendorID := httputil.GetVendorID(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	items, total, err := h.service.ListItems(r.Context(), vendorID, page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}

	httputil.JSONWithMeta(w, http.StatusOK, items, &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

// Get gets one of the vendor's items by ID
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	vendorID := httputil.GetVendorID(r.Context())
	id := chi.URLParam(r, "id")

	item, err := h.service.GetItem(r.Context(), vendorID, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// Create lists a catalog product for the vendor
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	vendorID := httputil.GetVendorID(r.Context())

	var input service.CreateItemInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.service.CreateItem(r.Context(), vendorID, input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, item)
}

// Update applies a partial update to an item
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	vendorID := httputil.GetVendorID(r.Context())
	id := chi.URLParam(r, "id")

	var input service.UpdateItemInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.service.UpdateItem(r.Context(), vendorID, id, input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// SubmitBatches reconciles incoming batch records into an item
func (h *ItemHandler) SubmitBatches(w http.ResponseWriter, r *http.Request) {
	vendorID := httputil.GetVendorID(r.Context())
	id := chi.URLParam(r, "id")

	var submission service.BatchSubmission
	if err := httputil.DecodeJSON(r, &submission); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(submission); err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.service.SubmitBatches(r.Context(), vendorID, id, submission)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// Deactivate soft-removes a listing
func (h *ItemHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	vendorID := httputil.GetVendorID(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.service.DeactivateItem(r.Context(), vendorID, id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// EffectivePrice returns the customer-facing price as of now
func (h *ItemHandler) EffectivePrice(w http.ResponseWriter, r *http.Request) {
	vendorID := httputil.GetVendorID(r.Context())
	id := chi.URLParam(r, "id")

	price, err := h.service.GetEffectivePrice(r.Context(), vendorID, id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{
		"item_id":         id,
		"effective_price": price.String(),
	})
}
