package trust

// DiscountTier pairs a minimum reputation score with the largest discount
// an agent at that score may negotiate.
type DiscountTier struct {
	MinReputation float64
	MaxDiscount   float64
}

// DiscountPolicy is an ordered list of tiers, highest minimum first. The
// first tier whose minimum the score meets decides the cap.
type DiscountPolicy []DiscountTier

// DefaultDiscountPolicy is the standard reputation ladder.
func DefaultDiscountPolicy() DiscountPolicy {
	return DiscountPolicy{
		{MinReputation: 0.90, MaxDiscount: 0.15},
		{MinReputation: 0.75, MaxDiscount: 0.10},
		{MinReputation: 0.50, MaxDiscount: 0.05},
		{MinReputation: 0.00, MaxDiscount: 0.00},
	}
}

// CapFor returns the discount cap for the given reputation score.
func (p DiscountPolicy) CapFor(score float64) float64 {
	for _, tier := range p {
		if score >= tier.MinReputation {
			return tier.MaxDiscount
		}
	}
	return 0
}
