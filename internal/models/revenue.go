package models

import "time"

// CreatorRevenueWindow фиксирует момент первой одобренной публикации автора
// и конец льготного окна. FirstApprovedPublishAt после установки неизменяем.
type CreatorRevenueWindow struct {
	CreatorUID             string    // Учётная запись автора
	FirstApprovedPublishAt time.Time // Первая одобренная публикация
	PromotionalShareEndsAt time.Time // Конец льготного окна (исключительно)
}

// RevenueShare описывает распределение выручки между автором и платформой.
type RevenueShare struct {
	CreatorPct  int `json:"creator_pct"`
	PlatformPct int `json:"platform_pct"`
}
