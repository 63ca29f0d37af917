package seed

import (
	"errors"

	"wayfare/internal/models"

	"gorm.io/gorm"
)

// builtinCurrencies are the currencies the platform quotes in out of the box.
// Rates are rough dev-time placeholders; operators maintain real rates through
// the admin API.
var builtinCurrencies = []models.Currency{
	{Code: "EUR", Name: "Euro", Symbol: "€", RateToEUR: 1.0, Enabled: true},
	{Code: "USD", Name: "US Dollar", Symbol: "$", RateToEUR: 0.92, Enabled: true},
	{Code: "GBP", Name: "Pound Sterling", Symbol: "£", RateToEUR: 1.17, Enabled: true},
	{Code: "CHF", Name: "Swiss Franc", Symbol: "CHF", RateToEUR: 1.04, Enabled: true},
	{Code: "JPY", Name: "Japanese Yen", Symbol: "¥", RateToEUR: 0.0061, Enabled: true},
}

// defaultFeeConfig is the fee schedule applied until an admin activates
// another one.
var defaultFeeConfig = models.BookingFeeConfig{
	ServiceFeePercent:  12.0,
	ServiceFeeMinCents: 500,
	ServiceFeeMaxCents: 50000,
	CleaningFeePercent: 5.0,
	TaxRate:            10.0,
	Active:             true,
}

// BuiltIns inserts reference data every deployment needs: the currency table
// and an active fee schedule. Idempotent.
func BuiltIns(db *gorm.DB) error {
	for i := range builtinCurrencies {
		currency := builtinCurrencies[i]
		var existing models.Currency
		err := db.Where("code = ?", currency.Code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := db.Create(&currency).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}

	var count int64
	if err := db.Model(&models.BookingFeeConfig{}).Where("active = ?", true).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		cfg := defaultFeeConfig
		if err := db.Create(&cfg).Error; err != nil {
			return err
		}
	}

	return nil
}
