package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/internal/repo"
	"github.com/Skotchmaster/freshcart/pkg/logging"
)

type AddressService struct {
	Repo *repo.GormRepo
}

type AddressInput struct {
	Name              string
	Mobile            string
	AddressLine1      string
	AddressLine2      string
	Landmark          string
	City              string
	State             string
	Pincode           string
	Type              models.AddressType
	IsDefault         bool
	ServiceLocationID *uint
}

// AddressUpdate holds only the fields the client sent.
type AddressUpdate struct {
	Name              *string
	Mobile            *string
	AddressLine1      *string
	AddressLine2      *string
	Landmark          *string
	City              *string
	State             *string
	Pincode           *string
	Type              *models.AddressType
	IsDefault         *bool
	ServiceLocationID *uint
}

// storeErr maps repository failures onto the service taxonomy.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case repo.IsNotFound(err):
		return fmt.Errorf("%w: %s not found", ErrNotFound, what)
	case repo.IsTransient(err):
		return fmt.Errorf("%w: %s changed concurrently, please retry", ErrConflict, what)
	case repo.IsDuplicate(err):
		return fmt.Errorf("%w: %s already exists", ErrBusinessRule, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (s *AddressService) List(ctx context.Context, userID uint) ([]models.Address, error) {
	return s.Repo.ListAddresses(ctx, userID)
}

func (s *AddressService) Get(ctx context.Context, userID, id uint) (*models.Address, error) {
	a, err := s.Repo.GetAddress(ctx, id)
	if err != nil {
		return nil, storeErr(err, "address")
	}
	if a.UserID != userID {
		return nil, fmt.Errorf("%w: address belongs to another user", ErrForbidden)
	}
	return a, nil
}

// resolveLocation returns the explicit location when given, otherwise the active location that
// serves pincode, if any.
func (s *AddressService) resolveLocation(ctx context.Context, id *uint, pincode string) (*uint, error) {
	if id != nil {
		loc, err := s.Repo.GetLocation(ctx, *id)
		if err != nil {
			return nil, storeErr(err, "service location")
		}
		return &loc.ID, nil
	}
	if pincode == "" {
		return nil, nil
	}
	loc, err := s.Repo.FindActiveLocation(ctx, pincode)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &loc.ID, nil
}

func (s *AddressService) Create(ctx context.Context, userID uint, in AddressInput) (*models.Address, error) {
	l := logging.FromContext(ctx).With("svc", "address.create")

	typ := in.Type
	if typ == "" {
		typ = models.AddressHome
	}
	locID, err := s.resolveLocation(ctx, in.ServiceLocationID, in.Pincode)
	if err != nil {
		return nil, err
	}

	a := &models.Address{
		UserID:            userID,
		Name:              in.Name,
		Mobile:            in.Mobile,
		AddressLine1:      in.AddressLine1,
		AddressLine2:      in.AddressLine2,
		Landmark:          in.Landmark,
		City:              in.City,
		State:             in.State,
		Pincode:           in.Pincode,
		Type:              typ,
		IsDefault:         in.IsDefault,
		ServiceLocationID: locID,
	}
	if err := s.Repo.CreateAddress(ctx, a); err != nil {
		l.Error("create_address_error", "user_id", userID, "error", err)
		return nil, storeErr(err, "address")
	}
	return s.Repo.GetAddress(ctx, a.ID)
}

// Update applies upd. is_default=true moves the default here; is_default=false is ignored, the
// default only moves by choosing another address.
func (s *AddressService) Update(ctx context.Context, userID, id uint, upd AddressUpdate) (*models.Address, error) {
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			changes[col] = *v
		}
	}
	set("name", upd.Name)
	set("mobile", upd.Mobile)
	set("address_line1", upd.AddressLine1)
	set("address_line2", upd.AddressLine2)
	set("landmark", upd.Landmark)
	set("city", upd.City)
	set("state", upd.State)
	set("pincode", upd.Pincode)
	if upd.Type != nil {
		changes["type"] = string(*upd.Type)
	}

	if upd.ServiceLocationID != nil || upd.Pincode != nil {
		pincode := current.Pincode
		if upd.Pincode != nil {
			pincode = *upd.Pincode
		}
		locID, err := s.resolveLocation(ctx, upd.ServiceLocationID, pincode)
		if err != nil {
			return nil, err
		}
		changes["service_location_id"] = locID
	}

	makeDefault := upd.IsDefault != nil && *upd.IsDefault
	if err := s.Repo.UpdateAddress(ctx, userID, id, changes, makeDefault); err != nil {
		return nil, storeErr(err, "address")
	}
	return s.Repo.GetAddress(ctx, id)
}

func (s *AddressService) SetDefault(ctx context.Context, userID, id uint) (*models.Address, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	if err := s.Repo.SetDefaultAddress(ctx, userID, id); err != nil {
		logging.FromContext(ctx).Warn("set_default_address_error", "user_id", userID, "error", err)
		return nil, storeErr(err, "address")
	}
	return s.Repo.GetAddress(ctx, id)
}

func (s *AddressService) Delete(ctx context.Context, userID, id uint) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return storeErr(s.Repo.DeleteAddress(ctx, userID, id), "address")
}
