package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"budgettool/src/app/http/response"
	"budgettool/src/app/middleware"
	"budgettool/src/core/domain"
	"budgettool/src/core/usecase"
)

// DataHandler serves the read-only table listings.
type DataHandler struct {
	budgetService *usecase.BudgetService
}

func NewDataHandler(budgetService *usecase.BudgetService) *DataHandler {
	return &DataHandler{budgetService: budgetService}
}

// List returns a handler that dumps every row of table. An empty table
// answers 200 with a "No <things> found." message.
func (h *DataHandler) List(table domain.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := h.budgetService.List(c.Request.Context(), table)
		if err != nil {
			_ = c.Error(err)
			response.FromDomainError(c, err, middleware.GetRequestID(c))
			return
		}
		if res.Empty() {
			response.Empty(c, fmt.Sprintf("No %s found.", table.Noun()))
			return
		}
		response.OK(c, res.Records())
	}
}

// Accounts handles GET /data/accounts.
func (h *DataHandler) Accounts(c *gin.Context) { h.List(domain.TableAccounts)(c) }

// Categories handles GET /data/categories and GET /categories/all.
func (h *DataHandler) Categories(c *gin.Context) { h.List(domain.TableCategories)(c) }

// Transactions handles GET /data/transactions.
func (h *DataHandler) Transactions(c *gin.Context) { h.List(domain.TableTransactions)(c) }

// Budgets handles GET /data/budgets.
func (h *DataHandler) Budgets(c *gin.Context) { h.List(domain.TableBudgets)(c) }

// BudgetPeriods handles GET /data/budget-periods.
func (h *DataHandler) BudgetPeriods(c *gin.Context) { h.List(domain.TableBudgetPeriods)(c) }
