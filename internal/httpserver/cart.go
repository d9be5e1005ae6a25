package httpserver

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/internal/repo"
	"github.com/Skotchmaster/freshcart/internal/service"
	"github.com/Skotchmaster/freshcart/internal/transport"
	middleware "github.com/Skotchmaster/freshcart/pkg/middleware/auth"
	"github.com/Skotchmaster/freshcart/pkg/tokens"
)

const (
	CartSessionCookie = "cart_session_id"
	CartSessionHeader = "X-Cart-Session"

	cartSessionTTL = 30 * 24 * time.Hour
)

type CartHTTP struct {
	Svc *service.CartService
}

type cartResponse struct {
	ID        uint              `json:"id"`
	Items     []models.CartItem `json:"items"`
	Total     decimal.Decimal   `json:"total"`
	ItemCount int               `json:"item_count"`
}

func guestSession(c echo.Context) string {
	if ck, err := c.Cookie(CartSessionCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	return c.Request().Header.Get(CartSessionHeader)
}

// owner picks the user cart for authenticated requests and the guest cart otherwise. A guest
// without a session token gets a fresh one in a cookie and a response header.
func owner(c echo.Context) repo.CartOwner {
	if id, ok := middleware.UserID(c); ok {
		return repo.CartOwner{UserID: &id}
	}
	sid := guestSession(c)
	if sid == "" {
		sid = uuid.NewString()
		c.SetCookie(tokens.CreateCookie(CartSessionCookie, sid, "/", time.Now().Add(cartSessionTTL)))
	}
	c.Response().Header().Set(CartSessionHeader, sid)
	return repo.CartOwner{SessionID: sid}
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	view, err := h.Svc.GetCart(c.Request().Context(), owner(c))
	if err != nil {
		return fail(c, "cart.get", "get_cart_error", err)
	}

	items := view.Cart.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return success(c, http.StatusOK, "", cartResponse{
		ID:        view.Cart.ID,
		Items:     items,
		Total:     view.Total,
		ItemCount: view.ItemCount,
	})
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	var req transport.AddToCartRequest
	if err := bindValid(c, &req); err != nil {
		return fail(c, "cart.add", "add_to_cart_error", err)
	}

	item, err := h.Svc.AddItem(c.Request().Context(), owner(c), service.AddItemInput{
		ProductID: req.ProductID,
		VariantID: req.ProductVariantID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return fail(c, "cart.add", "add_to_cart_error", err)
	}
	return success(c, http.StatusOK, "Item added to cart", item)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "cart.update_item", "update_cart_item_error", err)
	}
	var req transport.UpdateCartItemRequest
	if err := bindValid(c, &req); err != nil {
		return fail(c, "cart.update_item", "update_cart_item_error", err)
	}

	item, err := h.Svc.UpdateItem(c.Request().Context(), owner(c), id, req.Quantity)
	if err != nil {
		return fail(c, "cart.update_item", "update_cart_item_error", err)
	}
	return success(c, http.StatusOK, "Cart item updated", item)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "cart.remove_item", "remove_cart_item_error", err)
	}

	if err := h.Svc.RemoveItem(c.Request().Context(), owner(c), id); err != nil {
		return fail(c, "cart.remove_item", "remove_cart_item_error", err)
	}
	return success(c, http.StatusOK, "Item removed from cart", nil)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	n, err := h.Svc.Clear(c.Request().Context(), owner(c))
	if err != nil {
		return fail(c, "cart.clear", "clear_cart_error", err)
	}
	return success(c, http.StatusOK, "Cart cleared", echo.Map{"removed": n})
}

// Merge folds the caller's guest cart into their user cart. The guest token comes from the body,
// the cart cookie or the cart header, in that order.
func (h *CartHTTP) Merge(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, "cart.merge", "merge_cart_error", err)
	}

	var req transport.MergeCartRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return fail(c, "cart.merge", "merge_cart_error", echo.NewHTTPError(http.StatusBadRequest, "invalid body"))
		}
	}
	sid := req.SessionID
	if sid == "" {
		sid = guestSession(c)
	}

	res, err := h.Svc.Merge(c.Request().Context(), userID, sid)
	if err != nil {
		return fail(c, "cart.merge", "merge_cart_error", err)
	}
	if res.GuestFound {
		c.SetCookie(tokens.DeleteCookie(CartSessionCookie, "/"))
	}

	return success(c, http.StatusOK, "Cart merged", echo.Map{
		"merged":   res.GuestFound,
		"combined": res.Combined,
		"moved":    res.Moved,
	})
}
