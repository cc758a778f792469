package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Play rows keep the free-form attachment as an encoded text column
// (json_additional_data), hidden from clients. played_at is a timestamp in
// the store but travels as unix seconds on the wire.
type Play struct {
	ID                 int64     `db:"id" json:"-"`
	UserID             int64     `db:"user_id" json:"-"`
	GameID             int64     `db:"game_id" json:"-"`
	Name               string    `db:"name" json:"-"`
	PlayedAt           time.Time `db:"played_at" json:"-"`
	JSONAdditionalData string    `db:"json_additional_data" json:"-"`
	CreatedAt          time.Time `db:"created_at" json:"-"`
	UpdatedAt          time.Time `db:"updated_at" json:"-"`
}

type PlayView struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	GameID         int64           `json:"game_id"`
	Name           string          `json:"name"`
	PlayedAt       int64           `json:"played_at"`
	AdditionalData json.RawMessage `json:"additional_data"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Links          []PlayLink      `json:"links"`
}

type PlayLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// AdditionalData returns the stored attachment as raw JSON. A non-JSON
// column value is re-quoted so the view still marshals.
func (p *Play) AdditionalData() json.RawMessage {
	raw := []byte(p.JSONAdditionalData)
	if json.Valid(raw) {
		return raw
	}
	quoted, _ := json.Marshal(p.JSONAdditionalData)
	return quoted
}

// SetAdditionalData encodes an arbitrary attachment into the stored column.
func (p *Play) SetAdditionalData(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.JSONAdditionalData = string(raw)
	return nil
}

func (p *Play) Public() PlayView {
	return PlayView{
		ID:             p.ID,
		UserID:         p.UserID,
		GameID:         p.GameID,
		Name:           p.Name,
		PlayedAt:       p.PlayedAt.Unix(),
		AdditionalData: p.AdditionalData(),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		Links: []PlayLink{
			{Rel: "self", Href: fmt.Sprintf("/plays/%d", p.ID)},
			{Rel: "user", Href: fmt.Sprintf("/users/%d", p.UserID)},
			{Rel: "game", Href: fmt.Sprintf("/games/%d", p.GameID)},
		},
	}
}
