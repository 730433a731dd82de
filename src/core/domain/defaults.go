package domain

// DefaultCurrency is the ISO 4217 code assigned to accounts created without one.
const DefaultCurrency = "USD"

// MaxNameLength bounds account, category and budget period names.
const MaxNameLength = 100

// MaxDescriptionLength bounds transaction descriptions.
const MaxDescriptionLength = 200

// MaxMerchantLength bounds transaction merchant names.
const MaxMerchantLength = 150
