package pricing

import (
	"time"

	"stayloom/models"
	"stayloom/utils"
)

// Engine computes the nightly base price a negotiation starts from.
type Engine interface {
	BasePrice(property *models.Property, roomType, checkIn, checkOut string) (float64, error)
	Nights(checkIn, checkOut string) (int, error)
}

// DefaultEngine prices from the property's room-type base rate with
// demand multipliers: weekend nights cost more, and short-lead bookings
// carry a last-minute surcharge.
type DefaultEngine struct {
	WeekendMultiplier    float64
	LastMinuteMultiplier float64
	LastMinuteDays       int

	now func() time.Time
}

// NewDefaultEngine returns the standard pricing configuration.
func NewDefaultEngine() *DefaultEngine {
	return &DefaultEngine{
		WeekendMultiplier:    1.25,
		LastMinuteMultiplier: 1.10,
		LastMinuteDays:       3,
		now:                  time.Now,
	}
}

const dateLayout = "2006-01-02"

func (e *DefaultEngine) BasePrice(property *models.Property, roomType, checkIn, checkOut string) (float64, error) {
	rate, ok := property.BaseRates[roomType]
	if !ok || rate <= 0 {
		return 0, utils.NewAPIError(utils.KindValidation,
			"property %s has no rate for room type %s", property.PropertyID, roomType)
	}

	start, err := time.Parse(dateLayout, checkIn)
	if err != nil {
		return 0, utils.NewAPIError(utils.KindValidation, "invalid check_in date %q", checkIn)
	}
	end, err := time.Parse(dateLayout, checkOut)
	if err != nil {
		return 0, utils.NewAPIError(utils.KindValidation, "invalid check_out date %q", checkOut)
	}
	if !end.After(start) {
		return 0, utils.NewAPIError(utils.KindValidation, "check_out must be after check_in")
	}

	// Average the per-night multiplier across the stay so the quoted
	// nightly price reflects the mix of weekday and weekend nights.
	total := 0.0
	nights := 0
	for night := start; night.Before(end); night = night.AddDate(0, 0, 1) {
		multiplier := 1.0
		if wd := night.Weekday(); wd == time.Friday || wd == time.Saturday {
			multiplier = e.WeekendMultiplier
		}
		total += rate * multiplier
		nights++
	}
	nightly := total / float64(nights)

	if start.Sub(e.now()) < time.Duration(e.LastMinuteDays)*24*time.Hour {
		nightly *= e.LastMinuteMultiplier
	}
	return nightly, nil
}

// Nights returns the number of nights between the two dates.
func (e *DefaultEngine) Nights(checkIn, checkOut string) (int, error) {
	start, err := time.Parse(dateLayout, checkIn)
	if err != nil {
		return 0, utils.NewAPIError(utils.KindValidation, "invalid check_in date %q", checkIn)
	}
	end, err := time.Parse(dateLayout, checkOut)
	if err != nil {
		return 0, utils.NewAPIError(utils.KindValidation, "invalid check_out date %q", checkOut)
	}
	nights := int(end.Sub(start).Hours() / 24)
	if nights <= 0 {
		return 0, utils.NewAPIError(utils.KindValidation, "check_out must be after check_in")
	}
	return nights, nil
}
