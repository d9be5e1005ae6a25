package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Channel string

const (
	ChannelMobile   Channel = "mobile"
	ChannelWhatsapp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID               uint       `gorm:"primaryKey"                     json:"id"`
	Name             string     `gorm:"size:255;not null"              json:"name"`
	Mobile           string     `gorm:"size:10;uniqueIndex;not null"   json:"mobile"`
	Email            *string    `gorm:"size:255;uniqueIndex"           json:"email"`
	PasswordHash     string     `gorm:"not null"                       json:"-"`
	Role             string     `gorm:"size:16;not null;default:user"  json:"role"`
	MobileVerifiedAt *time.Time `                                      json:"mobile_verified_at"`
	EmailVerifiedAt  *time.Time `                                      json:"email_verified_at"`
	CreatedAt        time.Time  `                                      json:"created_at"`
	UpdatedAt        time.Time  `                                      json:"updated_at"`
}

// AuthToken backs a session JWT so it can be revoked before it expires.
type AuthToken struct {
	ID        uint      `gorm:"primaryKey"                json:"id"`
	UserID    uint      `gorm:"index;not null"            json:"user_id"`
	JTI       string    `gorm:"size:64;uniqueIndex;not null" json:"jti"`
	TokenHash string    `gorm:"size:64;not null"          json:"-"`
	ExpiresAt time.Time `gorm:"not null"                  json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false"    json:"revoked"`
	CreatedAt time.Time `                                 json:"created_at"`
}

type OtpRecord struct {
	ID         uint       `gorm:"primaryKey"                                   json:"id"`
	Identifier string     `gorm:"size:255;not null;index:idx_otp_lookup,priority:1" json:"identifier"`
	Channel    Channel    `gorm:"size:16;not null;index:idx_otp_lookup,priority:2"  json:"channel"`
	Code       string     `gorm:"size:6;not null"                              json:"-"`
	Consumed   bool       `gorm:"not null;default:false"                       json:"consumed"`
	ExpiresAt  time.Time  `gorm:"not null"                                     json:"expires_at"`
	ConsumedAt *time.Time `                                                    json:"consumed_at"`
	CreatedAt  time.Time  `                                                    json:"created_at"`
}

type Flow string

const (
	FlowRegistration Flow = "registration"
	FlowLogin        Flow = "login"
)

// PendingFlow holds what step 1 of register/login collected until step 2 proves the OTPs.
type PendingFlow struct {
	Handle          string    `gorm:"primaryKey;size:64"`
	Flow            Flow      `gorm:"size:16;not null"`
	Name            string    `gorm:"size:255"`
	Mobile          string    `gorm:"size:10;not null"`
	Email           *string   `gorm:"size:255"`
	PasswordHash    string
	UserID          *uint
	WhatsappEnabled bool      `gorm:"not null;default:false"`
	ExpiresAt       time.Time `gorm:"not null;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Cart struct {
	ID        uint       `gorm:"primaryKey"          json:"id"`
	UserID    *uint      `gorm:"uniqueIndex"         json:"user_id"`
	SessionID *string    `gorm:"size:64;uniqueIndex" json:"session_id"`
	Items     []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `                           json:"created_at"`
	UpdatedAt time.Time  `                           json:"updated_at"`
}

type CartItem struct {
	ID               uint            `gorm:"primaryKey"                               json:"id"`
	CartID           uint            `gorm:"not null;uniqueIndex:idx_cart_line"      json:"cart_id"`
	ProductID        uint            `gorm:"not null;uniqueIndex:idx_cart_line"      json:"product_id"`
	ProductVariantID *uint           `gorm:"uniqueIndex:idx_cart_line"               json:"product_variant_id"`
	Quantity         int             `gorm:"not null;check:quantity >= 1"            json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(10,2);not null"             json:"unit_price"`
	Product          *Product        `gorm:"foreignKey:ProductID"                    json:"product,omitempty"`
	Variant          *ProductVariant `gorm:"foreignKey:ProductVariantID"             json:"variant,omitempty"`
	CreatedAt        time.Time       `                                               json:"created_at"`
	UpdatedAt        time.Time       `                                               json:"updated_at"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type AddressType string

const (
	AddressHome   AddressType = "home"
	AddressOffice AddressType = "office"
	AddressOther  AddressType = "other"
)

type Address struct {
	ID                uint             `gorm:"primaryKey"            json:"id"`
	UserID            uint             `gorm:"index;not null"        json:"user_id"`
	Name              string           `gorm:"size:255;not null"     json:"name"`
	Mobile            string           `gorm:"size:10;not null"      json:"mobile"`
	AddressLine1      string           `gorm:"size:255;not null"     json:"address_line1"`
	AddressLine2      string           `gorm:"size:255"              json:"address_line2"`
	Landmark          string           `gorm:"size:255"              json:"landmark"`
	City              string           `gorm:"size:255;not null"     json:"city"`
	State             string           `gorm:"size:255;not null"     json:"state"`
	Pincode           string           `gorm:"size:6;not null"       json:"pincode"`
	Type              AddressType      `gorm:"size:16;not null"      json:"type"`
	IsDefault         bool             `gorm:"not null;default:false" json:"is_default"`
	ServiceLocationID *uint            `                             json:"service_location_id"`
	ServiceLocation   *ServiceLocation `gorm:"foreignKey:ServiceLocationID" json:"service_location,omitempty"`
	CreatedAt         time.Time        `                             json:"created_at"`
	UpdatedAt         time.Time        `                             json:"updated_at"`
}

type ServiceLocation struct {
	ID        uint      `gorm:"primaryKey"                  json:"id"`
	Pincode   string    `gorm:"size:6;uniqueIndex;not null" json:"pincode"`
	AreaName  string    `gorm:"size:255;not null"           json:"area_name"`
	District  string    `gorm:"size:255;not null"           json:"district"`
	State     string    `gorm:"size:255;not null"           json:"state"`
	Country   string    `gorm:"size:64;not null;default:India" json:"country"`
	IsActive  bool      `gorm:"not null;default:true"       json:"is_active"`
	CreatedAt time.Time `                                   json:"created_at"`
	UpdatedAt time.Time `                                   json:"updated_at"`
}

type Category struct {
	ID          uint       `gorm:"primaryKey"                json:"id"`
	ParentID    *uint      `gorm:"index"                     json:"parent_id"`
	Name        string     `gorm:"size:255;not null"         json:"name"`
	Slug        string     `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description string     `                                 json:"description"`
	SortOrder   int        `gorm:"not null;default:0"        json:"sort_order"`
	IsActive    bool       `gorm:"not null;default:true"     json:"is_active"`
	Children    []Category `gorm:"foreignKey:ParentID"       json:"children,omitempty"`
	CreatedAt   time.Time  `                                 json:"created_at"`
	UpdatedAt   time.Time  `                                 json:"updated_at"`
}

type Product struct {
	ID          uint             `gorm:"primaryKey"                 json:"id"`
	CategoryID  uint             `gorm:"index;not null"             json:"category_id"`
	Category    *Category        `gorm:"foreignKey:CategoryID"      json:"category,omitempty"`
	Name        string           `gorm:"size:255;not null"          json:"name"`
	Slug        string           `gorm:"size:255;index;not null"    json:"slug"`
	Description string           `gorm:"not null"                   json:"description"`
	Price       decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock       int              `gorm:"not null;default:0"         json:"stock"`
	SKU         string           `gorm:"size:64;uniqueIndex;not null" json:"sku"`
	IsActive    bool             `gorm:"not null;default:true"      json:"is_active"`
	Variants    []ProductVariant `gorm:"constraint:OnDelete:CASCADE" json:"variants,omitempty"`
	CreatedAt   time.Time        `                                  json:"created_at"`
	UpdatedAt   time.Time        `                                  json:"updated_at"`
}

type ProductVariant struct {
	ID         uint              `gorm:"primaryKey"                   json:"id"`
	ProductID  uint              `gorm:"index;not null"               json:"product_id"`
	Name       string            `gorm:"size:255;not null"            json:"name"`
	SKU        string            `gorm:"size:64;uniqueIndex;not null" json:"sku"`
	Price      decimal.Decimal   `gorm:"type:decimal(10,2);not null"  json:"price"`
	Stock      int               `gorm:"not null;default:0"           json:"stock"`
	Attributes map[string]string `gorm:"serializer:json"              json:"attributes"`
	IsDefault  bool              `gorm:"not null;default:false"       json:"is_default"`
	IsActive   bool              `gorm:"not null;default:true"        json:"is_active"`
	CreatedAt  time.Time         `                                    json:"created_at"`
	UpdatedAt  time.Time         `                                    json:"updated_at"`
}
