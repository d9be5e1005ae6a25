package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/internal/mykafka"
	"github.com/Skotchmaster/freshcart/internal/repo"
	"github.com/Skotchmaster/freshcart/pkg/logging"
)

type CartService struct {
	Repo   *repo.GormRepo
	Events mykafka.Publisher
}

type CartView struct {
	Cart      *models.Cart
	Total     decimal.Decimal
	ItemCount int
}

type AddItemInput struct {
	ProductID uint
	VariantID *uint
	Quantity  int
}

func validOwner(owner repo.CartOwner) error {
	if (owner.UserID == nil) == (owner.SessionID == "") {
		return fmt.Errorf("%w: cart needs either a user or a session", ErrUnauthenticated)
	}
	return nil
}

// Resolve finds the cart of owner, creating it on first use.
func (s *CartService) Resolve(ctx context.Context, owner repo.CartOwner) (*models.Cart, error) {
	if err := validOwner(owner); err != nil {
		return nil, err
	}
	cart, err := s.Repo.FindOrCreateCart(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("resolve cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) GetCart(ctx context.Context, owner repo.CartOwner) (*CartView, error) {
	cart, err := s.Resolve(ctx, owner)
	if err != nil {
		return nil, err
	}
	full, err := s.Repo.LoadCart(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	view := &CartView{Cart: full, Total: decimal.Zero}
	for _, it := range full.Items {
		view.Total = view.Total.Add(it.LineTotal())
		view.ItemCount += it.Quantity
	}
	view.Total = view.Total.Round(2)
	return view, nil
}

// AddItem snapshots the variant price, or the product price when no variant is given, on the
// first add of a (product, variant) pair. Later adds only bump the quantity.
func (s *CartService) AddItem(ctx context.Context, owner repo.CartOwner, in AddItemInput) (*models.CartItem, error) {
	l := logging.FromContext(ctx).With("svc", "cart.add")

	if in.Quantity < 1 {
		return nil, NewValidationError("quantity", "quantity must be at least 1")
	}

	product, err := s.Repo.GetProduct(ctx, in.ProductID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: product not found", ErrNotFound)
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, fmt.Errorf("%w: product not found", ErrNotFound)
	}

	price := product.Price
	if in.VariantID != nil {
		variant, err := s.Repo.GetVariant(ctx, *in.VariantID)
		if err != nil && !repo.IsNotFound(err) {
			return nil, err
		}
		if variant == nil || variant.ProductID != product.ID {
			return nil, NewValidationError("product_variant_id", "variant does not belong to product")
		}
		if !variant.IsActive {
			return nil, NewValidationError("product_variant_id", "variant is not available")
		}
		price = variant.Price
	}

	cart, err := s.Resolve(ctx, owner)
	if err != nil {
		return nil, err
	}

	item, err := s.Repo.AddItem(ctx, cart.ID, product.ID, in.VariantID, in.Quantity, price)
	if err != nil {
		l.Error("add_to_cart_error", "cart_id", cart.ID, "error", err)
		return nil, fmt.Errorf("add item: %w", err)
	}
	return item, nil
}

func (s *CartService) ownedItem(ctx context.Context, cart *models.Cart, itemID uint) error {
	item, err := s.Repo.GetCartItem(ctx, itemID)
	if err != nil {
		if repo.IsNotFound(err) {
			return fmt.Errorf("%w: cart item not found", ErrNotFound)
		}
		return err
	}
	if item.CartID != cart.ID {
		return fmt.Errorf("%w: cart item belongs to another cart", ErrForbidden)
	}
	return nil
}

func (s *CartService) UpdateItem(ctx context.Context, owner repo.CartOwner, itemID uint, qty int) (*models.CartItem, error) {
	if qty < 1 {
		return nil, NewValidationError("quantity", "quantity must be at least 1")
	}
	cart, err := s.Resolve(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := s.ownedItem(ctx, cart, itemID); err != nil {
		return nil, err
	}
	item, err := s.Repo.SetItemQuantity(ctx, cart.ID, itemID, qty)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: cart item not found", ErrNotFound)
		}
		return nil, err
	}
	return item, nil
}

func (s *CartService) RemoveItem(ctx context.Context, owner repo.CartOwner, itemID uint) error {
	cart, err := s.Resolve(ctx, owner)
	if err != nil {
		return err
	}
	if err := s.ownedItem(ctx, cart, itemID); err != nil {
		return err
	}
	if err := s.Repo.DeleteCartItem(ctx, cart.ID, itemID); err != nil {
		if repo.IsNotFound(err) {
			return fmt.Errorf("%w: cart item not found", ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *CartService) Clear(ctx context.Context, owner repo.CartOwner) (int64, error) {
	cart, err := s.Resolve(ctx, owner)
	if err != nil {
		return 0, err
	}
	return s.Repo.ClearCart(ctx, cart.ID)
}

// Merge moves the guest cart of sessionID into the user's cart. A missing guest cart is a no-op.
func (s *CartService) Merge(ctx context.Context, userID uint, sessionID string) (*repo.MergeResult, error) {
	l := logging.FromContext(ctx).With("svc", "cart.merge")

	if userID == 0 {
		return nil, fmt.Errorf("%w: login required", ErrUnauthenticated)
	}
	if sessionID == "" {
		return &repo.MergeResult{}, nil
	}

	res, err := s.Repo.MergeGuestCart(ctx, sessionID, userID)
	if err != nil {
		if repo.IsTransient(err) {
			l.Warn("merge_cart_conflict", "status", 409, "error", err)
			return nil, fmt.Errorf("%w: cart changed concurrently, please retry", ErrConflict)
		}
		l.Error("merge_cart_error", "status", 500, "error", err)
		return nil, fmt.Errorf("merge cart: %w", err)
	}

	if res.GuestFound {
		publish(ctx, s.Events, mykafka.TopicCartEvents, idKey(userID), mykafka.NewEvent("cart_merged", userID, map[string]any{
			"cart_id":  res.UserCartID,
			"combined": res.Combined,
			"moved":    res.Moved,
		}))
		l.Info("cart_merged", "user_id", userID, "combined", res.Combined, "moved", res.Moved)
	}
	return res, nil
}
