package config

import (
	"time"

	"verisite/internal/presale"
)

func presalePhase(name string, startDay, endDay int) presale.Phase {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return presale.Phase{
		Name:     name,
		StartsAt: base.AddDate(0, 0, startDay),
		EndsAt:   base.AddDate(0, 0, endDay),
	}
}
