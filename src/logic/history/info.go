package history

import (
	"chessreview/src/logic/convert/convpgn"
	"strings"
)

// InfoGame is the tag-pair metadata of the loaded game.
type InfoGame struct {
	headers map[convpgn.PGNHeader]string
}

func NewInfoGame() *InfoGame {
	return &InfoGame{headers: make(map[convpgn.PGNHeader]string)}
}

// NewInfoGameFrom copies headers.
func NewInfoGameFrom(headers map[convpgn.PGNHeader]string) *InfoGame {
	i := NewInfoGame()
	for k, v := range headers {
		i.headers[k] = strings.TrimSpace(v)
	}
	return i
}

func (i *InfoGame) Headers() map[convpgn.PGNHeader]string {
	out := make(map[convpgn.PGNHeader]string, len(i.headers))
	for k, v := range i.headers {
		out[k] = v
	}
	return out
}

// event
func (i *InfoGame) GetEvent() string { return i.headers[convpgn.PGNHeaderEvent] }
func (i *InfoGame) GetDate() string  { return i.headers[convpgn.PGNHeaderDate] }
func (i *InfoGame) GetSite() string  { return i.headers[convpgn.PGNHeaderSite] }
func (i *InfoGame) GetRound() string { return i.headers[convpgn.PGNHeaderRound] }

// players
func (i *InfoGame) GetWhitePlayer() string { return i.headers[convpgn.PGNHeaderWhite] }
func (i *InfoGame) GetBlackPlayer() string { return i.headers[convpgn.PGNHeaderBlack] }
func (i *InfoGame) GetWhiteElo() string    { return i.headers[convpgn.PGNHeaderWhiteElo] }
func (i *InfoGame) GetBlackElo() string    { return i.headers[convpgn.PGNHeaderBlackElo] }

// result
func (i *InfoGame) SetResult(name string) { i.headers[convpgn.PGNHeaderResult] = name }
func (i *InfoGame) GetResult() string     { return i.headers[convpgn.PGNHeaderResult] }

// opening
func (i *InfoGame) SetOpening(name string) { i.headers[convpgn.PGNHeaderOpening] = name }
func (i *InfoGame) GetOpening() string     { return i.headers[convpgn.PGNHeaderOpening] }
func (i *InfoGame) SetECO(code string)     { i.headers[convpgn.PGNHeaderECO] = code }
func (i *InfoGame) GetECO() string         { return i.headers[convpgn.PGNHeaderECO] }

// Players is "White vs Black" with "?" for unknown names.
func (i *InfoGame) Players() string {
	w, b := i.GetWhitePlayer(), i.GetBlackPlayer()
	if w == "" {
		w = "?"
	}
	if b == "" {
		b = "?"
	}
	return w + " vs " + b
}
