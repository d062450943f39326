package models

type Stats struct {
	Meetings      int `json:"meetings"`
	Notifications int `json:"notifications"`
	Sessions      int `json:"sessions"`
}
