package repository

import "strconv"

// Storage key prefixes, suffixed with the customer id
const (
	KeyCart = "cart-storage:"
	KeyAuth = "auth-storage:"
)

func CartKey(customerID int64) string { return KeyCart + strconv.FormatInt(customerID, 10) }

func AuthKey(customerID int64) string { return KeyAuth + strconv.FormatInt(customerID, 10) }
