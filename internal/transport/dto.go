package transport

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
)

var (
	phoneRe = regexp.MustCompile(`^09\d{9}$`)
	slugRe  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	codeRe  = regexp.MustCompile(`^\d{4,8}$`)
)

func ValidPhone(phone string) bool {
	return phoneRe.MatchString(phone)
}

type SendOTPRequest struct {
	Phone string `json:"phone"`
}

func (r SendOTPRequest) Validate() error {
	fe := FieldErrors{}
	if !ValidPhone(r.Phone) {
		fe.Add("phone", "must look like 09xxxxxxxxx")
	}
	return fe.Err()
}

type VerifyOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

func (r VerifyOTPRequest) Validate() error {
	fe := FieldErrors{}
	if !ValidPhone(r.Phone) {
		fe.Add("phone", "must look like 09xxxxxxxxx")
	}
	if !codeRe.MatchString(r.Code) {
		fe.Add("code", "must be numeric")
	}
	return fe.Err()
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
}

func (r UpdateProfileRequest) Validate() error {
	fe := FieldErrors{}
	if r.FirstName != nil && len(*r.FirstName) > 64 {
		fe.Add("first_name", "too long")
	}
	if r.LastName != nil && len(*r.LastName) > 64 {
		fe.Add("last_name", "too long")
	}
	if r.Email != nil && *r.Email != "" {
		if _, err := mail.ParseAddress(*r.Email); err != nil {
			fe.Add("email", "invalid email")
		}
	}
	return fe.Err()
}

type AddressRequest struct {
	Province      string `json:"province"`
	City          string `json:"city"`
	Street        string `json:"street"`
	PostalCode    string `json:"postal_code"`
	ReceiverName  string `json:"receiver_name"`
	ReceiverPhone string `json:"receiver_phone"`
}

func (r AddressRequest) Validate() error {
	fe := FieldErrors{}
	required := map[string]string{
		"province":      r.Province,
		"city":          r.City,
		"street":        r.Street,
		"postal_code":   r.PostalCode,
		"receiver_name": r.ReceiverName,
	}
	for field, v := range required {
		if strings.TrimSpace(v) == "" {
			fe.Add(field, "required")
		}
	}
	if !ValidPhone(r.ReceiverPhone) {
		fe.Add("receiver_phone", "must look like 09xxxxxxxxx")
	}
	return fe.Err()
}

func (r AddressRequest) Apply(a *models.Address) {
	a.Province = strings.TrimSpace(r.Province)
	a.City = strings.TrimSpace(r.City)
	a.Street = strings.TrimSpace(r.Street)
	a.PostalCode = strings.TrimSpace(r.PostalCode)
	a.ReceiverName = strings.TrimSpace(r.ReceiverName)
	a.ReceiverPhone = r.ReceiverPhone
}

type SetRoleRequest struct {
	Role string `json:"role"`
}

func (r SetRoleRequest) Validate() error {
	fe := FieldErrors{}
	if r.Role != models.RoleUser && r.Role != models.RoleAdmin {
		fe.Add("role", "must be user or admin")
	}
	return fe.Err()
}

type CategoryRequest struct {
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
	ParentID *uuid.UUID `json:"parent_id"`
}

func (r CategoryRequest) Validate() error {
	fe := FieldErrors{}
	if strings.TrimSpace(r.Name) == "" {
		fe.Add("name", "required")
	}
	if !slugRe.MatchString(r.Slug) {
		fe.Add("slug", "lowercase letters, digits and dashes only")
	}
	return fe.Err()
}

type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  *uuid.UUID      `json:"category_id"`
	Images      []string        `json:"images"`
}

func (r CreateProductRequest) Validate() error {
	fe := FieldErrors{}
	if strings.TrimSpace(r.Name) == "" {
		fe.Add("name", "required")
	}
	if r.Price.IsNegative() {
		fe.Add("price", "must not be negative")
	} else if !r.Price.IsInteger() {
		fe.Add("price", "must be a whole amount")
	}
	if r.Stock < 0 {
		fe.Add("stock", "must not be negative")
	}
	return fe.Err()
}

type PatchProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	CategoryID  *uuid.UUID       `json:"category_id"`
	Images      []string         `json:"images"`
}

func (r PatchProductRequest) Validate() error {
	fe := FieldErrors{}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		fe.Add("name", "must not be empty")
	}
	if r.Price != nil {
		switch {
		case r.Price.IsNegative():
			fe.Add("price", "must not be negative")
		case !r.Price.IsInteger():
			fe.Add("price", "must be a whole amount")
		}
	}
	if r.Stock != nil && *r.Stock < 0 {
		fe.Add("stock", "must not be negative")
	}
	return fe.Err()
}

func (r PatchProductRequest) Apply(p *models.Product) {
	if r.Name != nil {
		p.Name = strings.TrimSpace(*r.Name)
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.Stock != nil {
		p.Stock = *r.Stock
	}
	if r.CategoryID != nil {
		p.CategoryID = r.CategoryID
	}
	if r.Images != nil {
		p.Images = r.Images
	}
}

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

func (r AddCartItemRequest) Validate() error {
	fe := FieldErrors{}
	if r.ProductID == uuid.Nil {
		fe.Add("product_id", "required")
	}
	if r.Quantity < 1 {
		fe.Add("quantity", "must be at least 1")
	}
	return fe.Err()
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (r UpdateCartItemRequest) Validate() error {
	fe := FieldErrors{}
	if r.Quantity < 1 {
		fe.Add("quantity", "must be at least 1")
	}
	return fe.Err()
}

type CartResponse struct {
	Items      []models.CartItem `json:"items"`
	TotalPrice decimal.Decimal   `json:"total_price"`
}

type CreateCommentRequest struct {
	Body     string     `json:"body"`
	Rating   int        `json:"rating"`
	ParentID *uuid.UUID `json:"parent_id"`
}

func (r CreateCommentRequest) Validate() error {
	fe := FieldErrors{}
	if strings.TrimSpace(r.Body) == "" {
		fe.Add("body", "required")
	}
	if r.ParentID == nil && (r.Rating < 1 || r.Rating > 5) {
		fe.Add("rating", "must be between 1 and 5")
	}
	if r.ParentID != nil && r.Rating != 0 {
		fe.Add("rating", "replies are not rated")
	}
	return fe.Err()
}

type CreateTicketRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (r CreateTicketRequest) Validate() error {
	fe := FieldErrors{}
	if strings.TrimSpace(r.Subject) == "" {
		fe.Add("subject", "required")
	}
	if strings.TrimSpace(r.Body) == "" {
		fe.Add("body", "required")
	}
	return fe.Err()
}

type TicketMessageRequest struct {
	Body string `json:"body"`
}

func (r TicketMessageRequest) Validate() error {
	fe := FieldErrors{}
	if strings.TrimSpace(r.Body) == "" {
		fe.Add("body", "required")
	}
	return fe.Err()
}

type PatchOrderRequest struct {
	Status       *string `json:"status"`
	TrackingCode *string `json:"tracking_code"`
}

func (r PatchOrderRequest) Validate() error {
	fe := FieldErrors{}
	if r.Status == nil && r.TrackingCode == nil {
		fe.Add("status", "status or tracking_code required")
	}
	if r.Status != nil {
		switch *r.Status {
		case models.OrderStatusProcessing, models.OrderStatusShipped, models.OrderStatusDelivered:
		default:
			fe.Add("status", "unknown status")
		}
	}
	if r.TrackingCode != nil && len(*r.TrackingCode) > 64 {
		fe.Add("tracking_code", "too long")
	}
	return fe.Err()
}

type StartCheckoutRequest struct {
	ShippingAddressID uuid.UUID `json:"shipping_address_id"`
}

func (r StartCheckoutRequest) Validate() error {
	fe := FieldErrors{}
	if r.ShippingAddressID == uuid.Nil {
		fe.Add("shipping_address_id", "required")
	}
	return fe.Err()
}

type StartCheckoutResponse struct {
	Checkout   *models.CheckoutSession `json:"checkout"`
	PaymentURL string                  `json:"payment_url"`
}
