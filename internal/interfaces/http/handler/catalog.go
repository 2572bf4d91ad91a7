package handler

import (
	appcatalog "github.com/fabtrack/backend/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// CatalogHandler serves catalog items and measurement sheets
type CatalogHandler struct {
	BaseHandler
	catalogService *appcatalog.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService *appcatalog.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// CreateItem godoc
// @Summary      Create a catalog item
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        request body appcatalog.CreateCatalogItemRequest true "Item"
// @Success      201 {object} dto.Response{data=appcatalog.CatalogItemResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /catalog/items [post]
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	var req appcatalog.CreateCatalogItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	item, err := h.catalogService.CreateItem(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// GetItem godoc
// @Summary      Get a catalog item
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Catalog item ID"
// @Success      200 {object} dto.Response{data=appcatalog.CatalogItemResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /catalog/items/{id} [get]
func (h *CatalogHandler) GetItem(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	item, err := h.catalogService.GetItem(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// ListItems godoc
// @Summary      List catalog items
// @Tags         catalog
// @Produce      json
// @Param        search    query string false "Code or name search"
// @Param        page      query int    false "Page"
// @Param        page_size query int    false "Page size"
// @Success      200 {object} dto.Response{data=[]appcatalog.CatalogItemResponse}
// @Router       /catalog/items [get]
func (h *CatalogHandler) ListItems(c *gin.Context) {
	var filter appcatalog.CatalogItemListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	items, err := h.catalogService.ListItems(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// ChangeItemPrice godoc
// @Summary      Change a unit price
// @Description  Existing quotes keep the price they were priced at
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        id      path string                                   true "Catalog item ID"
// @Param        request body appcatalog.UpdateCatalogItemPriceRequest true "Price"
// @Success      200 {object} dto.Response{data=appcatalog.CatalogItemResponse}
// @Router       /catalog/items/{id}/price [put]
func (h *CatalogHandler) ChangeItemPrice(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req appcatalog.UpdateCatalogItemPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	item, err := h.catalogService.ChangeItemPrice(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// CreateSheet godoc
// @Summary      Record a measurement visit
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        request body appcatalog.CreateMeasurementSheetRequest true "Sheet"
// @Success      201 {object} dto.Response{data=appcatalog.MeasurementSheetResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /catalog/sheets [post]
func (h *CatalogHandler) CreateSheet(c *gin.Context) {
	var req appcatalog.CreateMeasurementSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	sheet, err := h.catalogService.CreateSheet(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sheet)
}

// GetSheet godoc
// @Summary      Get a measurement sheet
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Sheet ID"
// @Success      200 {object} dto.Response{data=appcatalog.MeasurementSheetResponse}
// @Router       /catalog/sheets/{id} [get]
func (h *CatalogHandler) GetSheet(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	sheet, err := h.catalogService.GetSheet(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sheet)
}
