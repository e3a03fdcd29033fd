package game

import "github.com/google/uuid"

// BannerKind is the tone of a result banner.
type BannerKind string

const (
	BannerWin   BannerKind = "win"
	BannerLoss  BannerKind = "loss"
	BannerPoint BannerKind = "point"
)

// Banner is the transient result shown after a deciding or point-setting roll.
// The ID lets a delayed clear detect that a newer banner replaced it.
type Banner struct {
	ID      string     `json:"id"`
	Kind    BannerKind `json:"kind"`
	Outcome Outcome    `json:"outcome"`
	Text    string     `json:"text"`
	Dice    [2]int     `json:"dice"`
	Total   int        `json:"total"`
}

func newBanner(kind BannerKind, outcome Outcome, text string, dice [2]int) *Banner {
	return &Banner{
		ID:      uuid.NewString(),
		Kind:    kind,
		Outcome: outcome,
		Text:    text,
		Dice:    dice,
		Total:   dice[0] + dice[1],
	}
}
