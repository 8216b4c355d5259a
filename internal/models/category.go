package models

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"` // hex, e.g. "#6366f1"
	Icon  string `json:"icon"`
}
