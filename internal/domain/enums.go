package domain

import "strings"

// EateryType is the venue category taken from eateryTypes[0].descrshort.
type EateryType string

const (
	TypeDiningHall       EateryType = "dining_hall"
	TypeCafe             EateryType = "cafe"
	TypeCart             EateryType = "cart"
	TypeFoodCourt        EateryType = "food_court"
	TypeConvenienceStore EateryType = "convenience_store"
	TypeCoffeeShop       EateryType = "coffee_shop"
	TypeBakery           EateryType = "bakery"
	TypeUnknown          EateryType = "unknown"
)

// ParseEateryType maps a feed description to an EateryType. Unrecognized
// values become TypeUnknown.
func ParseEateryType(descr string) EateryType {
	switch normalizeEnum(descr) {
	case "dining room", "dining hall":
		return TypeDiningHall
	case "cafe":
		return TypeCafe
	case "cart", "food cart":
		return TypeCart
	case "food court":
		return TypeFoodCourt
	case "convenience store":
		return TypeConvenienceStore
	case "coffee shop":
		return TypeCoffeeShop
	case "bakery":
		return TypeBakery
	default:
		return TypeUnknown
	}
}

// Area is the campus area a location belongs to.
type Area string

const (
	AreaWest    Area = "west"
	AreaNorth   Area = "north"
	AreaCentral Area = "central"
	AreaUnknown Area = "unknown"
)

// ParseArea maps campusArea.descrshort to an Area.
func ParseArea(descr string) Area {
	switch normalizeEnum(descr) {
	case "west":
		return AreaWest
	case "north":
		return AreaNorth
	case "central":
		return AreaCentral
	default:
		return AreaUnknown
	}
}

// PaymentMethod is one accepted form of payment.
type PaymentMethod string

const (
	PaymentSwipes      PaymentMethod = "swipes"
	PaymentBRB         PaymentMethod = "brb"
	PaymentCash        PaymentMethod = "cash"
	PaymentCornellCard PaymentMethod = "cornell_card"
	PaymentCreditCard  PaymentMethod = "credit_card"
	PaymentMobile      PaymentMethod = "mobile"
	PaymentOther       PaymentMethod = "other"
)

// ParsePaymentMethod maps payMethods[].descrshort to a PaymentMethod.
func ParsePaymentMethod(descr string) PaymentMethod {
	switch normalizeEnum(descr) {
	case "meal plan - swipe", "swipes":
		return PaymentSwipes
	case "meal plan - debit", "brbs", "brb":
		return PaymentBRB
	case "cash":
		return PaymentCash
	case "cornell card":
		return PaymentCornellCard
	case "major credit cards", "credit card":
		return PaymentCreditCard
	case "mobile payments", "mobile payment":
		return PaymentMobile
	default:
		return PaymentOther
	}
}

func normalizeEnum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
