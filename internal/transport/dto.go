package transport

import "github.com/shopspring/decimal"

type RegisterRequest struct {
	VerificationToken string  `json:"verification_token" validate:"omitempty,uuid"`
	Name              string  `json:"name"               validate:"required,max=255"`
	Mobile            string  `json:"mobile"             validate:"required,mobile"`
	Email             *string `json:"email"              validate:"omitempty,email,max=255"`
	Password          string  `json:"password"           validate:"required,min=8,max=72"`
}

type VerifyRequest struct {
	VerificationToken string `json:"verification_token" validate:"required"`
	MobileOTP         string `json:"mobile_otp"         validate:"required,len=6,numeric"`
	WhatsappOTP       string `json:"whatsapp_otp"       validate:"omitempty,len=6,numeric"`
}

// LoginRequest carries both login shapes; login_type picks which fields are checked.
type LoginRequest struct {
	LoginType         string `json:"login_type"         validate:"required,oneof=password otp"`
	Mobile            string `json:"mobile"             validate:"required_if=LoginType password"`
	Password          string `json:"password"           validate:"required_if=LoginType password"`
	VerificationToken string `json:"verification_token" validate:"required_if=LoginType otp"`
	MobileOTP         string `json:"mobile_otp"         validate:"required_if=LoginType otp"`
	WhatsappOTP       string `json:"whatsapp_otp"       validate:"omitempty,len=6,numeric"`
}

type RequestOTPRequest struct {
	VerificationToken string `json:"verification_token" validate:"omitempty,uuid"`
	Mobile            string `json:"mobile"             validate:"required,mobile"`
}

type ResendOTPRequest struct {
	Identifier string `json:"identifier" validate:"required,max=255"`
	Channel    string `json:"channel"    validate:"required,oneof=mobile whatsapp email"`
}

type UpdateProfileRequest struct {
	Name  *string `json:"name"  validate:"omitempty,min=1,max=255"`
	Email *string `json:"email" validate:"omitempty,email,max=255"`
}

type VerifyEmailRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	Password        string `json:"password"         validate:"required,min=8,max=72"`
}

type AddToCartRequest struct {
	ProductID        uint  `json:"product_id"         validate:"required"`
	ProductVariantID *uint `json:"product_variant_id"`
	Quantity         int   `json:"quantity"           validate:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type MergeCartRequest struct {
	SessionID string `json:"session_id"`
}

type AddressRequest struct {
	Name              string `json:"name"                validate:"required,max=255"`
	Mobile            string `json:"mobile"              validate:"required,mobile"`
	AddressLine1      string `json:"address_line1"       validate:"required,max=255"`
	AddressLine2      string `json:"address_line2"       validate:"max=255"`
	Landmark          string `json:"landmark"            validate:"max=255"`
	City              string `json:"city"                validate:"required,max=255"`
	State             string `json:"state"               validate:"required,max=255"`
	Pincode           string `json:"pincode"             validate:"required,pincode"`
	Type              string `json:"type"                validate:"omitempty,oneof=home office other"`
	IsDefault         bool   `json:"is_default"`
	ServiceLocationID *uint  `json:"service_location_id"`
}

type UpdateAddressRequest struct {
	Name              *string `json:"name"                validate:"omitempty,max=255"`
	Mobile            *string `json:"mobile"              validate:"omitempty,mobile"`
	AddressLine1      *string `json:"address_line1"       validate:"omitempty,max=255"`
	AddressLine2      *string `json:"address_line2"       validate:"omitempty,max=255"`
	Landmark          *string `json:"landmark"            validate:"omitempty,max=255"`
	City              *string `json:"city"                validate:"omitempty,max=255"`
	State             *string `json:"state"               validate:"omitempty,max=255"`
	Pincode           *string `json:"pincode"             validate:"omitempty,pincode"`
	Type              *string `json:"type"                validate:"omitempty,oneof=home office other"`
	IsDefault         *bool   `json:"is_default"`
	ServiceLocationID *uint   `json:"service_location_id"`
}

type CheckServiceabilityRequest struct {
	Pincode string `json:"pincode" validate:"required,pincode"`
}

type LocationRequest struct {
	Pincode  string `json:"pincode"   validate:"required,pincode"`
	AreaName string `json:"area_name" validate:"required,max=255"`
	District string `json:"district"  validate:"required,max=255"`
	State    string `json:"state"     validate:"required,max=255"`
	Country  string `json:"country"   validate:"omitempty,max=64"`
	IsActive *bool  `json:"is_active"`
}

type UpdateLocationRequest struct {
	Pincode  string `json:"pincode"   validate:"omitempty,pincode"`
	AreaName string `json:"area_name" validate:"omitempty,max=255"`
	District string `json:"district"  validate:"omitempty,max=255"`
	State    string `json:"state"     validate:"omitempty,max=255"`
	Country  string `json:"country"   validate:"omitempty,max=64"`
	IsActive *bool  `json:"is_active"`
}

type CategoryRequest struct {
	Name        string `json:"name"        validate:"required,max=255"`
	Slug        string `json:"slug"        validate:"omitempty,max=255"`
	ParentID    *uint  `json:"parent_id"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"  validate:"min=0"`
	IsActive    *bool  `json:"is_active"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=1,max=255"`
	Slug        *string `json:"slug"        validate:"omitempty,min=1,max=255"`
	ParentID    *uint   `json:"parent_id"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"sort_order"  validate:"omitempty,min=0"`
	IsActive    *bool   `json:"is_active"`
}

type VariantRequest struct {
	ID         uint              `json:"id"`
	Name       string            `json:"name"       validate:"required,max=255"`
	SKU        string            `json:"sku"        validate:"required,max=64"`
	Price      decimal.Decimal   `json:"price"      validate:"gte=0"`
	Stock      int               `json:"stock"      validate:"min=0"`
	Attributes map[string]string `json:"attributes"`
	IsDefault  bool              `json:"is_default"`
	IsActive   *bool             `json:"is_active"`
}

type ProductRequest struct {
	CategoryID  uint             `json:"category_id" validate:"required"`
	Name        string           `json:"name"        validate:"required,max=255"`
	Description string           `json:"description" validate:"required"`
	Price       decimal.Decimal  `json:"price"       validate:"gt=0"`
	Stock       int              `json:"stock"       validate:"min=0"`
	SKU         string           `json:"sku"         validate:"required,max=64"`
	IsActive    *bool            `json:"is_active"`
	Variants    []VariantRequest `json:"variants"    validate:"dive"`
}

type UpdateProductRequest struct {
	CategoryID  *uint             `json:"category_id"`
	Name        *string           `json:"name"        validate:"omitempty,min=1,max=255"`
	Description *string           `json:"description"`
	Price       *decimal.Decimal  `json:"price"       validate:"omitempty,gt=0"`
	Stock       *int              `json:"stock"       validate:"omitempty,min=0"`
	SKU         *string           `json:"sku"         validate:"omitempty,min=1,max=64"`
	IsActive    *bool             `json:"is_active"`
	Variants    *[]VariantRequest `json:"variants"    validate:"omitempty,dive"`
}
