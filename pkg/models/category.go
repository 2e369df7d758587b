package models

import (
	"fmt"
	"strings"
)

// Category is one of the fixed business folders an email can be filed into.
// The set is closed: classifier output that does not match a member exactly
// is rejected rather than coerced.
type Category int

const (
	CategoryClientCommunication Category = iota
	CategoryClientCommunicationLegacy
	CategoryCompletedArchived
	CategoryFollowUpRequired
	CategoryGeneralInquiries
	CategoryInvoicesPayments
	CategoryMarketingPromotions
	CategoryPendingToBeActioned
	CategoryPersonalNonBusiness
	CategoryReportsDocuments
	CategorySpamUnwanted
	CategorySystemNotifications
	CategoryUrgentTimeSensitive
)

// CategoryFallback is assigned when category inference fails or returns a
// value outside the fixed set.
const CategoryFallback = CategoryGeneralInquiries

var categoryNames = [...]string{
	CategoryClientCommunication:       "Client Communication",
	CategoryClientCommunicationLegacy: "Client_Communication",
	CategoryCompletedArchived:         "Completed & Archived",
	CategoryFollowUpRequired:          "Follow-Up Required",
	CategoryGeneralInquiries:          "General Inquiries",
	CategoryInvoicesPayments:          "Invoices & Payments",
	CategoryMarketingPromotions:       "Marketing & Promotions",
	CategoryPendingToBeActioned:       "Pending & To Be Actioned",
	CategoryPersonalNonBusiness:       "Personal & Non-Business",
	CategoryReportsDocuments:          "Reports & Documents",
	CategorySpamUnwanted:              "Spam & Unwanted",
	CategorySystemNotifications:       "System & Notifications",
	CategoryUrgentTimeSensitive:       "Urgent & Time-Sensitive",
}

// Categories returns all members of the set in declaration order.
func Categories() []Category {
	out := make([]Category, len(categoryNames))
	for i := range categoryNames {
		out[i] = Category(i)
	}
	return out
}

// CategoryNames returns the display names of all members.
func CategoryNames() []string {
	out := make([]string, len(categoryNames))
	copy(out, categoryNames[:])
	return out
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// Valid reports whether c is a member of the fixed set.
func (c Category) Valid() bool {
	return c >= 0 && int(c) < len(categoryNames)
}

// DefaultFolderMapping maps every category to its mail-store folder path.
// By default the folder carries the category's display name; deployments
// with different folder layouts override entries from configuration. Every
// category has exactly one folder.
func DefaultFolderMapping() map[Category]string {
	mapping := make(map[Category]string, len(categoryNames))
	for i, name := range categoryNames {
		mapping[Category(i)] = name
	}
	return mapping
}

// ParseCategory matches s against the fixed set, case-insensitively and
// ignoring surrounding whitespace. Anything that is not an exact member
// is an error; no best-guess substitution happens here.
func ParseCategory(s string) (Category, error) {
	trimmed := strings.TrimSpace(s)
	for i, name := range categoryNames {
		if strings.EqualFold(trimmed, name) {
			return Category(i), nil
		}
	}
	return CategoryFallback, fmt.Errorf("unknown category %q", s)
}
