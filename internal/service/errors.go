package service

import "errors"

// Errors returned by the order service. Validation kinds are detected before
// any write begins.
var (
	ErrEmptyItems              = errors.New("items are required")
	ErrInvalidQuantity         = errors.New("quantity must be >= 1")
	ErrInvalidFulfillment      = errors.New("fulfillmentType must be pickup or delivery")
	ErrDeliveryAddressRequired = errors.New("deliveryAddress is required for delivery orders")
	ErrCustomerNameRequired    = errors.New("customerName is required")
	ErrCustomerPhoneInvalid    = errors.New("customerPhone must be at least 6 characters")
	ErrInvalidMenuItem         = errors.New("invalid or inactive menu item")
	ErrInvalidOption           = errors.New("invalid option for menu item")
	ErrTooManySelections       = errors.New("only one option allowed for group")
	ErrMissingRequiredGroup    = errors.New("missing required option for group")
	ErrInvalidPaymentClaim     = errors.New("invalid payment claim")
	ErrAmountTooLarge          = errors.New("order amount exceeds the maximum")

	ErrStorageFailure = errors.New("storage failure")
	ErrOrderNotFound  = errors.New("order not found")
)

// validationCodes maps each client-caused error to its stable code.
var validationCodes = []struct {
	err  error
	code string
}{
	{ErrEmptyItems, "EMPTY_ITEMS"},
	{ErrInvalidQuantity, "INVALID_QUANTITY"},
	{ErrInvalidFulfillment, "INVALID_FULFILLMENT"},
	{ErrDeliveryAddressRequired, "DELIVERY_ADDRESS_REQUIRED"},
	{ErrCustomerNameRequired, "CUSTOMER_NAME_REQUIRED"},
	{ErrCustomerPhoneInvalid, "CUSTOMER_PHONE_INVALID"},
	{ErrInvalidMenuItem, "INVALID_MENU_ITEM"},
	{ErrInvalidOption, "INVALID_OPTION"},
	{ErrTooManySelections, "TOO_MANY_SELECTIONS"},
	{ErrMissingRequiredGroup, "MISSING_REQUIRED_GROUP"},
	{ErrInvalidPaymentClaim, "INVALID_PAYMENT_CLAIM"},
	{ErrAmountTooLarge, "AMOUNT_TOO_LARGE"},
}

// IsValidationError reports whether err was caused by the request itself
// and should be answered with 400 Bad Request.
func IsValidationError(err error) bool {
	return ErrorCode(err) != ""
}

// ErrorCode returns the stable code of a validation error, or "" for any
// other error.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, v := range validationCodes {
		if errors.Is(err, v.err) {
			return v.code
		}
	}
	return ""
}
