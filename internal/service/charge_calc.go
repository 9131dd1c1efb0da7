package service

// TargetBatteryPercent maps a paid amount into the battery percentage a
// session should reach, clamped at 100. fullChargeCostCents is the
// configured price of a 0% -> 100% charge and is validated positive at
// configuration load; amount bounds are enforced by the caller.
func TargetBatteryPercent(amountCents int64, currentPercent float64, fullChargeCostCents int64) float64 {
	target := currentPercent + float64(amountCents)/float64(fullChargeCostCents)*100
	if target > 100 {
		return 100
	}
	return target
}
