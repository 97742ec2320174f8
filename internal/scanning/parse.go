package scanning

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order; day-first comes before month-first
// because proofs are mostly French.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
	"02.01.2006",
}

type rawDraft struct {
	Type   string          `json:"type"`
	Name   string          `json:"name"`
	Date   string          `json:"date"`
	Amount float64         `json:"amount"`
	VAT    json.RawMessage `json:"vat"`
	Pct    *int            `json:"pct"`
}

// parseDraftJSON parses a model answer into a BillDraft. The type is
// matched against types; unmatched types are left empty for the user.
func parseDraftJSON(text string, types []string) (*BillDraft, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	end := strings.LastIndex(text, "}")
	if end < start {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	var raw rawDraft
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	draft := &BillDraft{
		Type:   matchType(raw.Type, types),
		Name:   strings.TrimSpace(raw.Name),
		Date:   normalizeDate(raw.Date),
		Amount: raw.Amount,
		VAT:    parseVAT(raw.VAT),
		Pct:    20,
	}
	if raw.Pct != nil && *raw.Pct > 0 {
		draft.Pct = *raw.Pct
	}
	if draft.Name == "" {
		draft.Name = "Dépense"
	}
	if draft.Amount < 0 {
		draft.Amount = 0
	}
	return draft, nil
}

// normalizeDate returns the date as YYYY-MM-DD, or "" when it can't be read
func normalizeDate(value string) string {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, value); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return ""
}

// parseVAT accepts the VAT as a JSON number or string
func parseVAT(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return s
		}
	}
	return ""
}

func matchType(value string, types []string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, t := range types {
		if strings.EqualFold(t, value) {
			return t
		}
	}
	lower := strings.ToLower(value)
	for _, t := range types {
		if strings.Contains(lower, strings.ToLower(t)) || strings.Contains(strings.ToLower(t), lower) {
			return t
		}
	}
	return ""
}
