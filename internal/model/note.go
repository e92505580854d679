package model

type SharedNote struct {
	ID         string `json:"id"`
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName"`
	Text       string `json:"text"`
	Date       string `json:"date"`
	Pinned     bool   `json:"pinned"`
}
