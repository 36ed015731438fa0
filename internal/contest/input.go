package contest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/wikicontest/internal/model"
)

// maxPayloadSize は作成リクエストのボディ上限。
const maxPayloadSize = 1 << 20

// CreateInput はコンテスト作成リクエストのJSONボディ。
// 文字列項目はキーの有無を区別するためポインタで受ける。
type CreateInput struct {
	Name            *string         `json:"name"`
	StartDate       *string         `json:"start_date"`
	EndDate         *string         `json:"end_date"`
	ProofreadPoints json.RawMessage `json:"proofread_points"`
	ValidatePoints  json.RawMessage `json:"validate_points"`
	Language        *string         `json:"language"`
	BookNames       *string         `json:"book_names"`
	Admins          *string         `json:"admins"`
}

// DecodeCreateInput はリクエストボディをCreateInputに変換する。
func DecodeCreateInput(r io.Reader) (*CreateInput, error) {
	var in CreateInput
	if err := json.NewDecoder(io.LimitReader(r, maxPayloadSize)).Decode(&in); err != nil {
		return nil, newCreateError(InvalidPayload, fmt.Errorf("invalid JSON body: %w", err))
	}
	return &in, nil
}

// parsed は検証済みの作成内容。
type parsed struct {
	name              string
	startDate         time.Time
	endDate           time.Time
	pointPerProofread int
	pointPerValidate  int
	language          string
	bookNames         []string
	adminNames        []string
}

func (in *CreateInput) parse() (*parsed, error) {
	var p parsed
	var err error

	fields := []struct {
		key string
		val *string
		dst *string
	}{
		{"name", in.Name, &p.name},
		{"language", in.Language, &p.language},
	}
	for _, f := range fields {
		if f.val == nil {
			return nil, newCreateError(InvalidPayload, fmt.Errorf("missing field %q", f.key))
		}
		*f.dst = *f.val
	}

	if p.startDate, err = parseDate("start_date", in.StartDate); err != nil {
		return nil, err
	}
	if p.endDate, err = parseDate("end_date", in.EndDate); err != nil {
		return nil, err
	}
	if p.pointPerProofread, err = parseWeight("proofread_points", in.ProofreadPoints); err != nil {
		return nil, err
	}
	if p.pointPerValidate, err = parseWeight("validate_points", in.ValidatePoints); err != nil {
		return nil, err
	}

	if in.BookNames == nil {
		return nil, newCreateError(InvalidPayload, errors.New(`missing field "book_names"`))
	}
	if p.bookNames, err = ParseBookNames(*in.BookNames); err != nil {
		return nil, err
	}

	if in.Admins == nil {
		return nil, newCreateError(InvalidPayload, errors.New(`missing field "admins"`))
	}
	p.adminNames = ParseAdminNames(*in.Admins)

	return &p, nil
}

func parseDate(key string, v *string) (time.Time, error) {
	if v == nil {
		return time.Time{}, newCreateError(InvalidPayload, fmt.Errorf("missing field %q", key))
	}
	d, err := time.Parse(model.DateLayout, *v)
	if err != nil {
		return time.Time{}, newCreateError(InvalidDate, fmt.Errorf("Invalid isoformat string for %s: %q", key, *v))
	}
	return d, nil
}

// parseWeight はJSONの整数、または整数を表す文字列を受け付ける。負の値は拒否する。
func parseWeight(key string, raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, newCreateError(InvalidWeight, fmt.Errorf("missing field %q", key))
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, newCreateError(InvalidWeight, fmt.Errorf("invalid %s: %w", key, err))
		}
		text = strings.TrimSpace(text)
	}

	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, newCreateError(InvalidWeight, fmt.Errorf("invalid literal for %s: %q", key, text))
	}
	if n < 0 {
		return 0, newCreateError(InvalidWeight, fmt.Errorf("%s must not be negative: %d", key, n))
	}
	return n, nil
}

// ParseBookNames は改行区切りの書籍行から書籍名を取り出す。
// 各行は "<prefix>:<name>" の形式で、最初の ":" より後ろを書籍名とする。空行は無視する。
func ParseBookNames(raw string) ([]string, error) {
	var names []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		_, name, ok := strings.Cut(line, ":")
		if !ok {
			return nil, newCreateError(InvalidBookLine, fmt.Errorf("book line has no prefix separator: %q", line))
		}
		names = append(names, name)
	}
	return names, nil
}

// ParseAdminNames は改行区切りの管理者名を重複を除いて入力順に返す。空行は無視する。
func ParseAdminNames(raw string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, line := range strings.Split(raw, "\n") {
		name := strings.TrimSpace(line)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
