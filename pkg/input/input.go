// Package input parses and validates the free text users type into the
// wizards and commands. Every parser returns an *Error whose Message is safe
// to show back to the user as a re-prompt.
package input

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"dogbot/pkg/models"
)

const (
	maxPetName = 64
	maxArea    = 64
	maxName    = 64
	maxAddress = 200
	maxComment = 500
	maxBio     = 500
	maxAreas   = 200
	maxNote    = 500

	MaxBudget = 1_000_000
)

// Skip is the directive that leaves an optional field empty.
const Skip = "/skip"

type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, msg string) *Error {
	return &Error{Field: field, Message: msg}
}

func IsSkip(s string) bool {
	s = strings.TrimSpace(s)
	// telebot delivers "/skip@botname" in groups
	if i := strings.IndexByte(s, '@'); i > 0 {
		s = s[:i]
	}
	return strings.EqualFold(s, Skip)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func PetName(s string) (string, error) {
	name := truncate(strings.TrimSpace(s), maxPetName)
	if name == "" {
		return "", invalid("pet_name", "Напиши кличку собаки.")
	}
	return name, nil
}

var petSizes = map[string]models.PetSize{
	"small":     models.PetSmall,
	"medium":    models.PetMedium,
	"large":     models.PetLarge,
	"маленький": models.PetSmall,
	"средний":   models.PetMedium,
	"большой":   models.PetLarge,
}

func PetSize(s string) (models.PetSize, error) {
	size, ok := petSizes[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", invalid("pet_size", "Введи один из вариантов: small / medium / large")
	}
	return size, nil
}

func Area(s string) (string, error) {
	area := truncate(strings.TrimSpace(s), maxArea)
	if utf8.RuneCountInString(area) < 2 {
		return "", invalid("area", "Дай название района поконкретнее.")
	}
	return area, nil
}

// Duration accepts whole minutes in 1..720.
func Duration(s string) (int, error) {
	n, ok := cleanInt(s)
	if !ok || n < 1 || n > models.MaxDurationMinutes {
		return 0, invalid("duration", fmt.Sprintf("Минуты должны быть числом > 0 и <= %d.", models.MaxDurationMinutes))
	}
	return n, nil
}

func Address(s string) (string, error) {
	addr := strings.TrimSpace(s)
	if utf8.RuneCountInString(addr) < 5 {
		return "", invalid("address", "Слишком короткий адрес, давай точнее.")
	}
	return truncate(addr, maxAddress), nil
}

// Budget returns nil for the skip directive.
func Budget(s string) (*int, error) {
	if IsSkip(s) {
		return nil, nil
	}
	n, ok := cleanInt(s)
	if !ok || n > MaxBudget {
		return nil, invalid("budget", "Бюджет — неотрицательное число. Или набери /skip, если не важно.")
	}
	return &n, nil
}

// Comment returns nil for the skip directive or blank text.
func Comment(s string) *string {
	if IsSkip(s) {
		return nil
	}
	return optional(s, maxComment)
}

func Name(s string) (string, error) {
	name := truncate(strings.TrimSpace(s), maxName)
	if name == "" {
		return "", invalid("name", "Как к тебе обращаться?")
	}
	return name, nil
}

// Phone strips whitespace and requires a leading plus and at least ten
// characters in total.
func Phone(s string) (string, error) {
	phone := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if !strings.HasPrefix(phone, "+") || len(phone) < 10 {
		return "", invalid("phone", "Дай нормальный телефон с +, ок? Например +79990000000")
	}
	return phone, nil
}

var rateRe = regexp.MustCompile(`\b(\d{3,5})\b`)

// Bio truncates the experience text and pulls the first 3 to 5 digit number
// out of it as the hourly rate.
func Bio(s string) (string, *int) {
	bio := truncate(strings.TrimSpace(s), maxBio)
	m := rateRe.FindStringSubmatch(bio)
	if m == nil {
		return bio, nil
	}
	rate, err := strconv.Atoi(m[1])
	if err != nil {
		return bio, nil
	}
	return bio, &rate
}

func Areas(s string) string {
	return truncate(strings.TrimSpace(s), maxAreas)
}

func Price(s string) (int, error) {
	n, ok := cleanInt(s)
	if !ok {
		return 0, invalid("price", "Цена должна быть числом, без пробелов. Ещё раз:")
	}
	return n, nil
}

func Note(s string) *string {
	return optional(s, maxNote)
}

// ID parses a positive id argument of a command.
func ID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid("id", "Номер должен быть положительным числом.")
	}
	return id, nil
}

func optional(s string, n int) *string {
	v := truncate(strings.TrimSpace(s), n)
	if v == "" {
		return nil
	}
	return &v
}

// cleanInt accepts only digits once whitespace is removed, so negative and
// fractional numbers are rejected.
func cleanInt(s string) (int, bool) {
	s = strings.Join(strings.Fields(s), "")
	if s == "" || len(s) > 9 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
