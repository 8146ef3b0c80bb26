package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/infinitepl/infinite/internal/access"
	"github.com/infinitepl/infinite/internal/catalog"
	"github.com/infinitepl/infinite/internal/domain"
	"github.com/infinitepl/infinite/internal/view"
	"github.com/infinitepl/infinite/internal/webserver"
)

type orderItem struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Kind      string `json:"kind" validate:"omitempty,oneof=product pillow epe_sheet"`
	Qty       int    `json:"qty" validate:"required,gte=1"`
}

type orderPayload struct {
	Items   []orderItem `json:"items" validate:"required,min=1,dive"`
	Address string      `json:"address" validate:"required"`
	Phone   string      `json:"phone" validate:"required,max=30"`
}

type orderPatchPayload struct {
	Paid    *bool   `json:"paid"`
	Address *string `json:"address" validate:"omitempty,min=1"`
	Phone   *string `json:"phone" validate:"omitempty,min=1,max=30"`
}

// placementError a caller mistake discovered while placing an order
type placementError struct {
	field   string
	message string
}

func (e *placementError) Error() string {
	return e.field + ": " + e.message
}

func registerOrderRoutes() {
	webserver.ApiGET("/orders", listOrders, require(access.Orders, access.List))
	webserver.ApiGET("/orders/:id", getOrder, require(access.Orders, access.Retrieve))
	webserver.ApiPOST("/orders", createOrder, require(access.Orders, access.Create))
	webserver.ApiPUT("/orders/:id", updateOrder, require(access.Orders, access.Update))
	webserver.ApiPATCH("/orders/:id", updateOrder, require(access.Orders, access.PartialUpdate))
	webserver.ApiDELETE("/orders/:id", deleteOrder, require(access.Orders, access.Destroy))
}

func withUser(db *gorm.DB) *gorm.DB {
	return db.Preload("User")
}

func listOrders(c echo.Context) error {
	q := GetDB(c).Model(&domain.Order{}).
		Scopes(access.Scope(webserver.GetPrincipal(c), access.Orders)).
		Order("created_at DESC, id DESC")
	return findList(c, q, "orders", func(rows []domain.Order) interface{} {
		return view.NewOrders(rows)
	}, withUser)
}

// loadOrder fetches an order visible to the caller, others' orders answer 404
func loadOrder(c echo.Context, o *domain.Order) (bool, error) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return false, fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	err = GetDB(c).Scopes(access.Scope(webserver.GetPrincipal(c), access.Orders), withUser).
		Where("id = ?", id).First(o).Error
	if err != nil {
		return false, lookupErr(c, err, "ORDER_NOT_FOUND", "Order")
	}
	return true, nil
}

func getOrder(c echo.Context) error {
	var o domain.Order
	if found, err := loadOrder(c, &o); !found {
		return err
	}
	return ok(c, view.NewOrder(o))
}

func createOrder(c echo.Context) error {
	var payload orderPayload
	if valid, err := bindPayload(c, &payload); !valid {
		return err
	}
	principal := webserver.GetPrincipal(c)
	var order domain.Order
	err := GetDB(c).Transaction(func(tx *gorm.DB) error {
		lines, err := reserveLines(tx, payload.Items)
		if err != nil {
			return err
		}
		order = domain.Order{
			UserID:      principal.UserID,
			Products:    lines,
			TotalAmount: lines.Total(),
			Address:     strings.TrimSpace(payload.Address),
			Phone:       strings.TrimSpace(payload.Phone),
		}
		return errors.Wrap(tx.Create(&order).Error, "create order")
	})
	var perr *placementError
	if errors.As(err, &perr) {
		return validationFail(c, FieldErrors{perr.field: {perr.message}})
	}
	if err != nil {
		return databaseFail(c, "Failed to place order", err)
	}
	if err := GetDB(c).Scopes(withUser).Where("id = ?", order.ID).First(&order).Error; err != nil {
		return databaseFail(c, "Failed to query order", err)
	}
	zap.L().Info("order placed",
		zap.Int64("id", order.ID),
		zap.Int64("user_id", order.UserID),
		zap.Int("lines", len(order.Products)),
		zap.String("total", order.TotalAmount.StringFixed(2)))
	return created(c, view.NewOrder(order))
}

// reserveLines snapshots each item from the catalog and takes its quantity out of stock.
// The decrement is conditional so concurrent orders can never oversell.
func reserveLines(tx *gorm.DB, items []orderItem) (domain.OrderLines, error) {
	lines := make(domain.OrderLines, 0, len(items))
	for i, item := range items {
		kind, found := catalog.LookupKind(item.Kind)
		if !found {
			return nil, &placementError{field: fmt.Sprintf("items[%d].kind", i), message: "Unknown catalog kind."}
		}
		var snap struct {
			Name  string
			Price decimal.Decimal
		}
		res := tx.Table(kind.Table).Select("name", "price").Where("id = ?", item.ProductID).Limit(1).Scan(&snap)
		if res.Error != nil {
			return nil, errors.Wrapf(res.Error, "load %s %d", kind.Name, item.ProductID)
		}
		if res.RowsAffected == 0 {
			return nil, &placementError{
				field:   fmt.Sprintf("items[%d].product_id", i),
				message: fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", item.ProductID),
			}
		}
		res = tx.Table(kind.Table).
			Where("id = ? AND stock >= ?", item.ProductID, item.Qty).
			UpdateColumn("stock", gorm.Expr("stock - ?", item.Qty))
		if res.Error != nil {
			return nil, errors.Wrapf(res.Error, "decrement stock of %s %d", kind.Name, item.ProductID)
		}
		if res.RowsAffected == 0 {
			return nil, &placementError{
				field:   fmt.Sprintf("items[%d].qty", i),
				message: fmt.Sprintf("Insufficient stock for %s.", snap.Name),
			}
		}
		lines = append(lines, domain.OrderLine{
			ProductID: item.ProductID,
			Kind:      kind.Name,
			Name:      snap.Name,
			Qty:       item.Qty,
			Price:     snap.Price,
		})
	}
	return lines, nil
}

func updateOrder(c echo.Context) error {
	var o domain.Order
	if found, err := loadOrder(c, &o); !found {
		return err
	}
	var payload orderPatchPayload
	if valid, err := bindPayload(c, &payload); !valid {
		return err
	}
	updates := map[string]interface{}{}
	if payload.Paid != nil {
		updates["paid"] = *payload.Paid
	}
	if payload.Address != nil {
		updates["address"] = strings.TrimSpace(*payload.Address)
	}
	if payload.Phone != nil {
		updates["phone"] = strings.TrimSpace(*payload.Phone)
	}
	if len(updates) > 0 {
		if err := GetDB(c).Model(&domain.Order{}).Where("id = ?", o.ID).Updates(updates).Error; err != nil {
			return databaseFail(c, "Failed to update order", err)
		}
	}
	if err := GetDB(c).Scopes(withUser).Where("id = ?", o.ID).First(&o).Error; err != nil {
		return databaseFail(c, "Failed to query order", err)
	}
	return ok(c, view.NewOrder(o))
}

func deleteOrder(c echo.Context) error {
	var o domain.Order
	if found, err := loadOrder(c, &o); !found {
		return err
	}
	if err := GetDB(c).Delete(&o).Error; err != nil {
		return databaseFail(c, "Failed to delete order", err)
	}
	zap.L().Info("order deleted", zap.Int64("id", o.ID))
	return c.NoContent(http.StatusNoContent)
}
