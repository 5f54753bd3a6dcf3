package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pfm/internal/core"
)

// Profile holds the key/value rows of the profile tab.
type Profile struct {
	User            core.User
	StartingBalance core.Money
	// HasBalance is false when the tab has no "balance" row; the balance is
	// then computed from the ledger.
	HasBalance bool
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006",
}

// parseProfile reads "Key | Value" rows. Unknown keys are ignored.
func parseProfile(values [][]interface{}) (Profile, error) {
	var p Profile
	for _, raw := range values {
		row := toStrings(raw)
		key := strings.ToLower(safeGet(row, 0))
		val := safeGet(row, 1)
		switch key {
		case "id":
			p.User.ID = val
		case "name":
			p.User.Name = val
		case "email":
			p.User.Email = val
		case "avatar", "avatar_url":
			p.User.AvatarURL = val
		case "balance":
			m, err := core.ParseSignedDecimal(val)
			if err != nil {
				return Profile{}, fmt.Errorf("profile balance %q: %w", val, err)
			}
			p.User.Balance = m
			p.HasBalance = true
		case "starting_balance":
			m, err := core.ParseSignedDecimal(val)
			if err != nil {
				return Profile{}, fmt.Errorf("profile starting balance %q: %w", val, err)
			}
			p.StartingBalance = m
		}
	}
	if p.User.ID == "" {
		return Profile{}, fmt.Errorf("profile: missing id row")
	}
	return p, nil
}

// parseCategories expects headers ID, Name, Type.
func parseCategories(values [][]interface{}) ([]core.Category, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	colID, colName, colType := indexOf(headers, "ID"), indexOf(headers, "Name"), indexOf(headers, "Type")
	if colID == -1 || colName == -1 || colType == -1 {
		return nil, fmt.Errorf("unexpected categories header: got headers=%v", headers)
	}
	var out []core.Category
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		id := safeGet(row, colID)
		if id == "" || strings.HasPrefix(id, "#") {
			continue
		}
		typ, err := core.ParseTransactionType(safeGet(row, colType))
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", id, err)
		}
		out = append(out, core.Category{ID: id, Name: safeGet(row, colName), Type: typ})
	}
	return out, nil
}

// parseRecipients expects headers ID, Name and optionally Avatar, Online.
func parseRecipients(values [][]interface{}) ([]core.Recipient, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	colID, colName := indexOf(headers, "ID"), indexOf(headers, "Name")
	if colID == -1 || colName == -1 {
		return nil, fmt.Errorf("unexpected recipients header: got headers=%v", headers)
	}
	colAvatar, colOnline := indexOf(headers, "Avatar"), indexOf(headers, "Online")
	var out []core.Recipient
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		id := safeGet(row, colID)
		if id == "" || strings.HasPrefix(id, "#") {
			continue
		}
		out = append(out, core.Recipient{
			ID:        id,
			Name:      safeGet(row, colName),
			AvatarURL: safeGet(row, colAvatar),
			Online:    parseBool(safeGet(row, colOnline)),
		})
	}
	return out, nil
}

// parseTransactions expects headers ID, Title, Amount, Type, Category, Date
// and optionally Subtitle, Recipient. Category and Recipient hold IDs that
// are resolved against the other tabs.
func parseTransactions(values [][]interface{}, categories []core.Category, recipients []core.Recipient) ([]core.Transaction, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	cols := map[string]int{}
	for _, h := range []string{"ID", "Title", "Subtitle", "Amount", "Type", "Category", "Date", "Recipient"} {
		cols[h] = indexOf(headers, h)
	}
	var missing []string
	for _, h := range []string{"ID", "Title", "Amount", "Type", "Category", "Date"} {
		if cols[h] == -1 {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected transactions header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	catByID := make(map[string]core.Category, len(categories))
	for _, c := range categories {
		catByID[c.ID] = c
	}
	recByID := make(map[string]core.Recipient, len(recipients))
	for _, r := range recipients {
		recByID[r.ID] = r
	}

	var out []core.Transaction
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		id := safeGet(row, cols["ID"])
		if id == "" || strings.HasPrefix(id, "#") {
			continue
		}
		amount, err := core.ParseSignedDecimal(safeGet(row, cols["Amount"]))
		if err == nil {
			err = amount.Validate()
		}
		if err != nil {
			return nil, fmt.Errorf("transaction %s amount: %w", id, err)
		}
		typ, err := core.ParseTransactionType(safeGet(row, cols["Type"]))
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", id, err)
		}
		date, err := parseDate(safeGet(row, cols["Date"]))
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", id, err)
		}
		categoryID := safeGet(row, cols["Category"])
		category, ok := catByID[categoryID]
		if !ok {
			category = core.Category{ID: categoryID, Name: categoryID, Type: typ}
		}
		tx := core.Transaction{
			ID:       id,
			Title:    safeGet(row, cols["Title"]),
			Subtitle: safeGet(row, cols["Subtitle"]),
			Amount:   amount,
			Type:     typ,
			Category: category,
			Date:     date,
		}
		if recID := safeGet(row, cols["Recipient"]); recID != "" {
			if rec, ok := recByID[recID]; ok {
				tx.Recipient = &rec
			}
		}
		out = append(out, tx)
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "x", "online":
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
