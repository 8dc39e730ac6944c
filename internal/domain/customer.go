package domain

import "time"

type Role string

const (
	RoleCustomer         Role = "CUSTOMER"
	RoleAdminNegocio     Role = "ADMIN_NEGOCIO"
	RoleAdminContenido   Role = "ADMIN_CONTENIDO"
	RoleAdminIT          Role = "ADMIN_IT"
	RoleAdminOperaciones Role = "ADMIN_OPERACIONES"
)

func (r Role) IsAdmin() bool {
	switch r {
	case RoleAdminNegocio, RoleAdminContenido, RoleAdminIT, RoleAdminOperaciones:
		return true
	}
	return false
}

// User is an authenticated storefront account; its ID doubles as the customer id
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone,omitempty"`
	Role         Role      `json:"role"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	LastLogin    time.Time `json:"last_login"`
}

// ProfileUpdate carries the editable profile fields; nil leaves a field as is
type ProfileUpdate struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}

// Apply copies the set fields onto u.
func (p ProfileUpdate) Apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
}

// Address is a saved shipping address
type Address struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customer_id"`
	Label      string `json:"label"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"is_default"`
}

type PaymentMethod string

const (
	PaymentCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard    PaymentMethod = "DEBIT_CARD"
	PaymentPayPal       PaymentMethod = "PAYPAL"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCash         PaymentMethod = "CASH"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentDebitCard, PaymentPayPal, PaymentBankTransfer, PaymentCash:
		return true
	}
	return false
}
