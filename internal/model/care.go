package model

type Caregiver struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Initials string `json:"initials"`
	Color    string `json:"color"`
}
