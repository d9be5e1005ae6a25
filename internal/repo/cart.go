package repo

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/freshcart/internal/models"
)

// CartOwner identifies a cart by exactly one of a user id or a guest session token.
type CartOwner struct {
	UserID    *uint
	SessionID string
}

func (o CartOwner) column() (string, any) {
	if o.UserID != nil {
		return "user_id", *o.UserID
	}
	return "session_id", o.SessionID
}

func (o CartOwner) newCart() models.Cart {
	if o.UserID != nil {
		id := *o.UserID
		return models.Cart{UserID: &id}
	}
	sid := o.SessionID
	return models.Cart{SessionID: &sid}
}

type MergeResult struct {
	GuestFound bool
	UserCartID uint
	Combined   int
	Moved      int
}

func matchVariant(q *gorm.DB, variantID *uint) *gorm.DB {
	if variantID == nil {
		return q.Where("product_variant_id IS NULL")
	}
	return q.Where("product_variant_id = ?", *variantID)
}

func findOrCreateCart(tx *gorm.DB, owner CartOwner) (*models.Cart, error) {
	col, val := owner.column()

	var cart models.Cart
	err := tx.Where(col+" = ?", val).Take(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := owner.newCart()
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return nil, err
	}

	// a concurrent request may have won the insert; either way the row now exists
	var found models.Cart
	if err := tx.Where(col+" = ?", val).Take(&found).Error; err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *GormRepo) FindOrCreateCart(ctx context.Context, owner CartOwner) (*models.Cart, error) {
	return findOrCreateCart(r.DB.WithContext(ctx), owner)
}

func (r *GormRepo) FindCartBySession(ctx context.Context, sessionID string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.DB.WithContext(ctx).Where("session_id = ?", sessionID).Take(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepo) LoadCart(ctx context.Context, cartID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id ASC") }).
		Preload("Items.Product").
		Preload("Items.Variant").
		Take(&cart, cartID).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem increments the (product, variant) line of the cart or creates it at unitPrice.
// The cart row is locked for the duration so concurrent adds to one cart serialize.
func (r *GormRepo) AddItem(ctx context.Context, cartID, productID uint, variantID *uint, qty int, unitPrice decimal.Decimal) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate).Take(&models.Cart{}, cartID).Error; err != nil {
			return err
		}

		line := func() *gorm.DB {
			return matchVariant(tx.Model(&models.CartItem{}).Where("cart_id = ? AND product_id = ?", cartID, productID), variantID)
		}

		res := line().Update("quantity", gorm.Expr("quantity + ?", qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return line().Take(&item).Error
		}

		item = models.CartItem{
			CartID:           cartID,
			ProductID:        productID,
			ProductVariantID: variantID,
			Quantity:         qty,
			UnitPrice:        unitPrice.Round(2),
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) GetCartItem(ctx context.Context, id uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.DB.WithContext(ctx).Take(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) SetItemQuantity(ctx context.Context, cartID, itemID uint, qty int) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate).Where("cart_id = ?", cartID).Take(&item, itemID).Error; err != nil {
			return err
		}
		if err := tx.Model(&item).Update("quantity", qty).Error; err != nil {
			return err
		}
		return tx.Take(&item, itemID).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, cartID, itemID uint) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) ClearCart(ctx context.Context, cartID uint) (int64, error) {
	res := r.DB.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// MergeGuestCart folds the guest cart of sessionID into the user's cart in one transaction:
// matching lines add quantities and keep the user's price, the rest move over unchanged, then
// the guest cart is deleted. A transient failure reruns the transaction once.
func (r *GormRepo) MergeGuestCart(ctx context.Context, sessionID string, userID uint) (*MergeResult, error) {
	var out MergeResult
	err := retryOnce(ctx, func() error {
		out = MergeResult{}
		return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var guest models.Cart
			err := tx.Clauses(forUpdate).Where("session_id = ?", sessionID).Take(&guest).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			if err != nil {
				return err
			}

			uid := userID
			userCart, err := findOrCreateCart(tx, CartOwner{UserID: &uid})
			if err != nil {
				return err
			}
			if err := tx.Clauses(forUpdate).Take(&models.Cart{}, userCart.ID).Error; err != nil {
				return err
			}

			var guestItems []models.CartItem
			if err := tx.Where("cart_id = ?", guest.ID).Order("id ASC").Find(&guestItems).Error; err != nil {
				return err
			}

			for _, gi := range guestItems {
				res := matchVariant(
					tx.Model(&models.CartItem{}).Where("cart_id = ? AND product_id = ?", userCart.ID, gi.ProductID),
					gi.ProductVariantID,
				).Update("quantity", gorm.Expr("quantity + ?", gi.Quantity))
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected > 0 {
					if err := tx.Delete(&models.CartItem{}, gi.ID).Error; err != nil {
						return err
					}
					out.Combined++
					continue
				}
				if err := tx.Model(&models.CartItem{}).Where("id = ?", gi.ID).Update("cart_id", userCart.ID).Error; err != nil {
					return err
				}
				out.Moved++
			}

			if err := tx.Delete(&models.Cart{}, guest.ID).Error; err != nil {
				return err
			}
			out.GuestFound = true
			out.UserCartID = userCart.ID
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
