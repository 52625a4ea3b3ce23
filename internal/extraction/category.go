package extraction

// CategoryRule maps a keyword group to a category.
type CategoryRule struct {
	Keywords []string
	Category Category
}

// CategoryRules are evaluated in order; the first group with any keyword
// present in the text wins. Text matching no group is General.
var CategoryRules = []CategoryRule{
	{Keywords: []string{"meeting", "call", "conference", "discuss"}, Category: CategoryMeeting},
	{Keywords: []string{"report", "document", "write", "draft"}, Category: CategoryWork},
	{Keywords: []string{"gym", "exercise", "doctor", "appointment"}, Category: CategoryPersonal},
	{Keywords: []string{"buy", "shop", "purchase"}, Category: CategoryShopping},
	{Keywords: []string{"study", "learn", "read", "research"}, Category: CategoryEducation},
	{Keywords: []string{"travel", "trip", "flight", "hotel"}, Category: CategoryTravel},
}

func classifyCategory(rules []CategoryRule, lower string) Category {
	for _, rule := range rules {
		if containsAny(lower, rule.Keywords) {
			return rule.Category
		}
	}
	return CategoryGeneral
}
