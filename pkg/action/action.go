// Package action encodes the opaque callback payloads attached to inline
// buttons. Every intent has a fixed layout so a token decodes back to exactly
// the intent, order and walker it was built from.
package action

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Intent string

const (
	Respond      Intent = "pr"     // pr:<order>
	Choose       Intent = "choose" // choose:<order>:<walker>
	Profile      Intent = "prof"   // prof:<order>:<walker>
	Candidates   Intent = "cands"  // cands:<order>
	Service      Intent = "srv"    // srv:<service>
	WalkType     Intent = "walk"   // walk:<type>
	Order        Intent = "ord"    // ord:confirm | ord:reject
	Back         Intent = "back"   // back:main
	BecomeWalker Intent = "become" // become:walker
	Approve      Intent = "appr"   // appr:<walker>
	Reject       Intent = "rej"    // rej:<walker>
)

const (
	ValueConfirm = "confirm"
	ValueReject  = "reject"
	ValueMain    = "main"
	ValueWalker  = "walker"
)

// Telegram rejects callback data longer than 64 bytes.
const maxLen = 64

var ErrMalformed = errors.New("malformed action token")

type Token struct {
	Intent   Intent
	OrderID  int64
	WalkerID int64
	Value    string
}

type layout int

const (
	withOrder layout = iota
	withOrderWalker
	withWalker
	withValue
)

var layouts = map[Intent]layout{
	Respond:      withOrder,
	Candidates:   withOrder,
	Choose:       withOrderWalker,
	Profile:      withOrderWalker,
	Approve:      withWalker,
	Reject:       withWalker,
	Service:      withValue,
	WalkType:     withValue,
	Order:        withValue,
	Back:         withValue,
	BecomeWalker: withValue,
}

// allowed restricts the value set of intents that carry a fixed word.
var allowed = map[Intent][]string{
	Order:        {ValueConfirm, ValueReject},
	Back:         {ValueMain},
	BecomeWalker: {ValueWalker},
}

func RespondTo(orderID int64) Token { return Token{Intent: Respond, OrderID: orderID} }
func ListCandidates(orderID int64) Token { return Token{Intent: Candidates, OrderID: orderID} }
func ChooseWalker(orderID, walkerID int64) Token {
	return Token{Intent: Choose, OrderID: orderID, WalkerID: walkerID}
}
func ViewProfile(orderID, walkerID int64) Token {
	return Token{Intent: Profile, OrderID: orderID, WalkerID: walkerID}
}
func ApproveWalker(walkerID int64) Token { return Token{Intent: Approve, WalkerID: walkerID} }
func RejectWalker(walkerID int64) Token { return Token{Intent: Reject, WalkerID: walkerID} }
func PickService(service string) Token { return Token{Intent: Service, Value: service} }
func PickWalkType(walkType string) Token { return Token{Intent: WalkType, Value: walkType} }
func ConfirmOrder() Token { return Token{Intent: Order, Value: ValueConfirm} }
func RejectOrder() Token { return Token{Intent: Order, Value: ValueReject} }
func BackToMain() Token { return Token{Intent: Back, Value: ValueMain} }
func BecomeWalkerToken() Token { return Token{Intent: BecomeWalker, Value: ValueWalker} }

// Encode renders t. It panics on a token that could not be decoded again,
// which only happens on programmer error.
func (t Token) Encode() string {
	s, err := t.encode()
	if err != nil {
		panic(err)
	}
	return s
}

func (t Token) encode() (string, error) {
	l, ok := layouts[t.Intent]
	if !ok {
		return "", fmt.Errorf("%w: unknown intent %q", ErrMalformed, t.Intent)
	}
	var s string
	switch l {
	case withOrder:
		s = fmt.Sprintf("%s:%d", t.Intent, t.OrderID)
	case withOrderWalker:
		s = fmt.Sprintf("%s:%d:%d", t.Intent, t.OrderID, t.WalkerID)
	case withWalker:
		s = fmt.Sprintf("%s:%d", t.Intent, t.WalkerID)
	case withValue:
		if t.Value == "" || strings.Contains(t.Value, ":") {
			return "", fmt.Errorf("%w: bad value %q", ErrMalformed, t.Value)
		}
		s = string(t.Intent) + ":" + t.Value
	}
	if len(s) > maxLen {
		return "", fmt.Errorf("%w: %d bytes", ErrMalformed, len(s))
	}
	return s, nil
}

func (t Token) String() string {
	s, err := t.encode()
	if err != nil {
		return "invalid"
	}
	return s
}

func Decode(data string) (Token, error) {
	// telebot prefixes unique callbacks with \f
	data = strings.TrimPrefix(data, "\f")
	parts := strings.Split(data, ":")
	if len(parts) < 2 {
		return Token{}, fmt.Errorf("%w: %q", ErrMalformed, data)
	}

	t := Token{Intent: Intent(parts[0])}
	l, ok := layouts[t.Intent]
	if !ok {
		return Token{}, fmt.Errorf("%w: unknown intent %q", ErrMalformed, parts[0])
	}

	var err error
	switch l {
	case withOrder:
		if len(parts) != 2 {
			return Token{}, fmt.Errorf("%w: %q", ErrMalformed, data)
		}
		t.OrderID, err = parseID(parts[1])
	case withOrderWalker:
		if len(parts) != 3 {
			return Token{}, fmt.Errorf("%w: %q", ErrMalformed, data)
		}
		if t.OrderID, err = parseID(parts[1]); err == nil {
			t.WalkerID, err = parseID(parts[2])
		}
	case withWalker:
		if len(parts) != 2 {
			return Token{}, fmt.Errorf("%w: %q", ErrMalformed, data)
		}
		t.WalkerID, err = parseID(parts[1])
	case withValue:
		if len(parts) != 2 || parts[1] == "" {
			return Token{}, fmt.Errorf("%w: %q", ErrMalformed, data)
		}
		t.Value = parts[1]
		if values, fixed := allowed[t.Intent]; fixed && !contains(values, t.Value) {
			return Token{}, fmt.Errorf("%w: %q", ErrMalformed, data)
		}
	}
	if err != nil {
		return Token{}, fmt.Errorf("%w: %q", ErrMalformed, data)
	}
	return t, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, errors.New("non-positive id")
	}
	return id, nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
