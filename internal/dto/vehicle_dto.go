package dto

import "github.com/google/uuid"

type VehicleRequest struct {
	Make        string  `json:"make"`
	Model       string  `json:"model"`
	Year        int     `json:"year"`
	Mileage     int     `json:"mileage"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

type ModerateVehicleRequest struct {
	Status string `json:"status"`
}

type MarkPremiumResponse struct {
	VehicleID     uuid.UUID            `json:"vehicle_id"`
	IsPremium     bool                 `json:"is_premium"`
	AutoCancelled bool                 `json:"auto_cancelled"`
	Subscription  SubscriptionResponse `json:"subscription"`
}
