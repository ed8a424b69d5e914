package extract

import (
	"regexp"
	"strings"

	"github.com/drksurvraze/orderbot/internal/models"
	"github.com/drksurvraze/orderbot/internal/ordererr"
)

// FallbackDetails is stored when nothing in the notification looks like a
// product description.
const FallbackDetails = "details not specified"

const detailsSentinel = "not specified"

var (
	orderIDPattern  = regexp.MustCompile(`(ORD_\w+)`)
	discordLine     = regexp.MustCompile(`(?i)discord:\s*(\S+)`)
	tokenLine       = regexp.MustCompile(`(?i)\b\d+\s*tokens?\b`)
	rankLine        = regexp.MustCompile(`(?i)\b[\w+ ]+rank\b`)
	keyLine         = regexp.MustCompile(`(?i)\b[\w ]+key\b`)
	itemLabel       = regexp.MustCompile(`(?i)^item:\s*(.+)$`)
	inGameNameLabel = regexp.MustCompile(`(?i)^(in-?game name|ign):?\s*$`)
	markupChars     = strings.NewReplacer("`", "", "*", "", "_", "", "~", "", "|", "")
)

// Extracted is the normalized result of parsing a notification.
type Extracted struct {
	OrderID        string
	Username       string
	ProductDetails string
}

// Extract parses the named fields and free-text body of an order
// notification. OrderID and Username are required; ProductDetails is
// best-effort and never blocks extraction.
func Extract(n models.Notification) (Extracted, error) {
	orderID := firstMatch(orderIDRules, n)
	if orderID == "" {
		return Extracted{}, ordererr.NewExtractionError("order id")
	}

	username := firstMatch(usernameRules, n)
	if username == "" {
		return Extracted{}, ordererr.NewExtractionError("username")
	}

	details := extractDetails(n, orderID)

	return Extracted{
		OrderID:        orderID,
		Username:       username,
		ProductDetails: details,
	}, nil
}

// StripMarkup removes emphasis and quote characters from extracted text.
func StripMarkup(s string) string {
	return strings.TrimSpace(markupChars.Replace(s))
}

// rule is one named matcher, evaluated against the whole notification.
// Rules are tried in priority order; the first non-empty result wins.
type rule struct {
	name  string
	apply func(n models.Notification) string
}

func firstMatch(rules []rule, n models.Notification) string {
	for _, r := range rules {
		if v := r.apply(n); v != "" {
			return v
		}
	}
	return ""
}

var orderIDRules = []rule{
	{
		name: "order field name",
		apply: func(n models.Notification) string {
			for _, f := range n.Fields {
				if !nameContainsAny(f, "Order", "🆔") {
					continue
				}
				if m := orderIDPattern.FindString(f.Value); m != "" {
					return m
				}
				return StripMarkup(f.Value)
			}
			return ""
		},
	},
	{
		name: "order id pattern in field value",
		apply: func(n models.Notification) string {
			for _, f := range n.Fields {
				if m := orderIDPattern.FindString(f.Value); m != "" {
					return m
				}
			}
			return ""
		},
	},
	{
		name: "order id pattern in body",
		apply: func(n models.Notification) string {
			return orderIDPattern.FindString(n.Body)
		},
	},
}

var usernameRules = []rule{
	{
		name: "username field name",
		apply: func(n models.Notification) string {
			for _, f := range n.Fields {
				if nameContainsAny(f, "Discord", "Username", "User", "👤") {
					return StripMarkup(f.Value)
				}
			}
			return ""
		},
	},
	{
		name: "handle-looking field value",
		apply: func(n models.Notification) string {
			for _, f := range n.Fields {
				if strings.Contains(f.Value, "#") || strings.Contains(strings.ToLower(f.Value), "discord") {
					return StripMarkup(f.Value)
				}
			}
			return ""
		},
	},
	{
		name: "discord label in body",
		apply: func(n models.Notification) string {
			if m := discordLine.FindStringSubmatch(n.Body); m != nil {
				return StripMarkup(m[1])
			}
			return ""
		},
	},
}

var detailFieldNames = []string{"Product", "Item", "Token", "Package", "Rank", "Key", "Purchase", "📦"}

func extractDetails(n models.Notification, orderID string) string {
	for _, f := range n.Fields {
		if !nameContainsAny(f, detailFieldNames...) {
			continue
		}
		v := StripMarkup(f.Value)
		if v != "" && !strings.EqualFold(v, detailsSentinel) {
			return v
		}
	}

	if v := detailsFromBody(n.Body); v != "" {
		return v
	}

	// Last resort: any field value that is not the order id, not a
	// mention or bare handle, and long enough to carry meaning.
	for _, f := range n.Fields {
		v := StripMarkup(f.Value)
		if v == "" || v == orderID {
			continue
		}
		if strings.HasPrefix(v, "@") || strings.HasPrefix(v, "<@") {
			continue
		}
		if strings.EqualFold(v, "discord") || strings.EqualFold(v, detailsSentinel) {
			continue
		}
		if len(v) > 3 && !strings.Contains(v, "#") {
			return v
		}
	}

	return FallbackDetails
}

func detailsFromBody(body string) string {
	if body == "" {
		return ""
	}
	lines := strings.Split(body, "\n")
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if m := itemLabel.FindStringSubmatch(line); m != nil {
			return StripMarkup(m[1])
		}
		if inGameNameLabel.MatchString(line) && i+1 < len(lines) {
			if next := StripMarkup(lines[i+1]); next != "" {
				return next
			}
			continue
		}
		if tokenLine.MatchString(line) || rankLine.MatchString(line) || keyLine.MatchString(line) {
			return StripMarkup(line)
		}
	}
	return ""
}

func nameContainsAny(f models.EmbedField, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(f.Name, needle) {
			return true
		}
	}
	return false
}
