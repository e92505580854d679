package model

type FamilyMember struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Relation       string   `json:"relation"`
	Color          string   `json:"color"`
	AvatarText     string   `json:"avatarText"`
	MedicalHistory []string `json:"medicalHistory,omitempty"`
	Allergies      []string `json:"allergies,omitempty"`
}

// FamilyMemberUpdate carries a partial update. Nil fields are left untouched.
type FamilyMemberUpdate struct {
	Name           *string   `json:"name,omitempty"`
	Relation       *string   `json:"relation,omitempty"`
	Color          *string   `json:"color,omitempty"`
	AvatarText     *string   `json:"avatarText,omitempty"`
	MedicalHistory *[]string `json:"medicalHistory,omitempty"`
	Allergies      *[]string `json:"allergies,omitempty"`
}

// Apply shallow-merges the non-nil fields of u into m.
func (u FamilyMemberUpdate) Apply(m FamilyMember) FamilyMember {
	if u.Name != nil {
		m.Name = *u.Name
	}
	if u.Relation != nil {
		m.Relation = *u.Relation
	}
	if u.Color != nil {
		m.Color = *u.Color
	}
	if u.AvatarText != nil {
		m.AvatarText = *u.AvatarText
	}
	if u.MedicalHistory != nil {
		m.MedicalHistory = *u.MedicalHistory
	}
	if u.Allergies != nil {
		m.Allergies = *u.Allergies
	}
	return m
}
