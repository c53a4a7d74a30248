package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/pagination"
	"finledger/internal/services"
	"finledger/internal/validator"
)

// TransactionHandler handles transaction-related requests
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// RecordTransactionRequest represents the request payload for recording a transaction
type RecordTransactionRequest struct {
	Name   string `json:"name" binding:"required,max=255"`
	Amount string `json:"amount" binding:"required,money"`
	Date   string `json:"date" binding:"required,calendar_date"`
}

// UpdateTransactionRequest represents the request payload for updating a transaction.
// Omitted fields are left unchanged.
type UpdateTransactionRequest struct {
	Name       *string `json:"name" binding:"omitempty,max=255"`
	Amount     *string `json:"amount" binding:"omitempty,money"`
	Date       *string `json:"date" binding:"omitempty,calendar_date"`
	CategoryID *string `json:"category_id" binding:"omitempty,uuid"`
}

// TransactionResponse represents a transaction in the response
type TransactionResponse struct {
	ID           string              `json:"id"`
	CategoryID   string              `json:"category_id"`
	CategoryName string              `json:"category_name,omitempty"`
	CategoryType models.CategoryType `json:"category_type,omitempty"`
	Name         string              `json:"name"`
	Date         string              `json:"date"`
	Amount       string              `json:"amount"`
}

func newTransactionResponse(t *models.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:         t.ID,
		CategoryID: t.CategoryID,
		Name:       t.Name,
		Date:       t.Date.Format(validator.DateLayout),
		Amount:     formatAmount(t.Amount),
	}
	if t.Category != nil {
		resp.CategoryName = t.Category.Name
		resp.CategoryType = t.Category.Type
	}
	return resp
}

// RecordTransaction handles recording a transaction against a category
// @Summary     Record a transaction
// @Description Record a transaction under a category. Non-reserved categories also get a mirror entry in the matching reserved category.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Param       request body RecordTransactionRequest true "Transaction details"
// @Success     201 {object} TransactionResponse "Transaction recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id}/transactions [post]
func (h *TransactionHandler) RecordTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid amount"))
		return
	}
	date, err := time.Parse(validator.DateLayout, req.Date)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid date"))
		return
	}

	transaction, err := h.transactionService.Record(c.Request.Context(), userID, categoryID, services.RecordInput{
		Name:   req.Name,
		Amount: amount,
		Date:   date,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "RECORD_TRANSACTION", "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{"category_id": categoryID, "amount": formatAmount(amount), "date": req.Date})

	c.JSON(http.StatusCreated, gin.H{"transaction": newTransactionResponse(transaction)})
}

// ListTransactions handles listing the user's transactions
// @Summary     List transactions
// @Description Paginated list of the user's transactions, oldest first
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       from_date   query string false "Inclusive start date (YYYY-MM-DD)"
// @Param       to_date     query string false "Inclusive end date (YYYY-MM-DD)"
// @Param       category_id query string false "Category ID"
// @Param       page        query int    false "Page number"
// @Param       page_size   query int    false "Items per page"
// @Success     200 {object} map[string]interface{} "Transactions"
// @Failure     400 {object} ErrorResponse "Invalid input or range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.ListTransactions(c.Request.Context(), userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	data := make([]TransactionResponse, len(result.Data))
	for i := range result.Data {
		data[i] = newTransactionResponse(&result.Data[i])
	}
	c.JSON(http.StatusOK, pagination.PageResponse[TransactionResponse]{
		Data:       data,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	})
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter
	var err error

	if filter.StartDate, err = optionalDate(c, "from_date"); err != nil {
		return filter, err
	}
	if filter.EndDate, err = optionalDate(c, "to_date"); err != nil {
		return filter, err
	}

	if v := c.Query("category_id"); v != "" {
		if _, err := parseQueryID(v); err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid category_id")
		}
		filter.CategoryID = v
	}

	return filter, nil
}

// GetTransactionByID handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} TransactionResponse "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(c.Request.Context(), userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": newTransactionResponse(transaction)})
}

// UpdateTransaction handles updating a transaction
// @Summary     Update transaction
// @Description Overwrite the given fields. The reserved-category mirror is not updated.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to change"
// @Success     200 {object} TransactionResponse "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	upd := services.TransactionUpdate{Name: req.Name, CategoryID: req.CategoryID}
	changes := map[string]interface{}{}
	if req.Name != nil {
		changes["name"] = *req.Name
	}
	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid amount"))
			return
		}
		upd.Amount = &amount
		changes["amount"] = formatAmount(amount)
	}
	if req.Date != nil {
		date, err := time.Parse(validator.DateLayout, *req.Date)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid date"))
			return
		}
		upd.Date = &date
		changes["date"] = *req.Date
	}
	if req.CategoryID != nil {
		changes["category_id"] = *req.CategoryID
	}

	transaction, err := h.transactionService.UpdateTransaction(c.Request.Context(), userID, transactionID, upd)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_TRANSACTION", "transaction", transaction.ID, c.ClientIP(), changes)

	c.JSON(http.StatusOK, gin.H{"transaction": newTransactionResponse(transaction)})
}

// DeleteTransaction handles deleting a transaction
// @Summary     Delete transaction
// @Description Delete a transaction. Its reserved-category mirror is kept.
// @Tags        transactions
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     204 "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(c.Request.Context(), userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSACTION", "transaction", transactionID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}
