package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Game rows keep designers as an encoded text column (json_designers). The
// decoded list exists only in the public view; the raw column never reaches
// clients.
type Game struct {
	ID            int64     `db:"id" json:"-"`
	Name          string    `db:"name" json:"-"`
	JSONDesigners string    `db:"json_designers" json:"-"`
	Cover         string    `db:"cover" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"-"`
	UpdatedAt     time.Time `db:"updated_at" json:"-"`
}

type GameView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Designers []string  `json:"designers"`
	Cover     string    `json:"cover"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Links     GameLinks `json:"links"`
}

type GameLinks struct {
	Self string `json:"self"`
}

// Designers decodes the stored list. A row whose column predates JSON
// encoding is treated as a single designer name.
func (g *Game) Designers() []string {
	var out []string
	if err := json.Unmarshal([]byte(g.JSONDesigners), &out); err != nil {
		if g.JSONDesigners == "" {
			return []string{}
		}
		return []string{g.JSONDesigners}
	}
	return out
}

// SetDesigners encodes the list into the stored column.
func (g *Game) SetDesigners(designers []string) error {
	raw, err := json.Marshal(designers)
	if err != nil {
		return err
	}
	g.JSONDesigners = string(raw)
	return nil
}

func (g *Game) Public() GameView {
	return GameView{
		ID:        g.ID,
		Name:      g.Name,
		Designers: g.Designers(),
		Cover:     g.Cover,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
		Links:     GameLinks{Self: fmt.Sprintf("/games/%d", g.ID)},
	}
}
