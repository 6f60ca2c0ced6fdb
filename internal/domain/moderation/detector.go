package moderation

import "regexp"

// Each pattern family is independent; any single match flags the message.
var patternFamilies = []struct {
	category PatternCategory
	re       *regexp.Regexp
}{
	{
		// Brazilian phone numbers, with or without area code: (11) 98888-7777,
		// 11988887777, 98888 7777.
		category: CategoryPhone,
		re:       regexp.MustCompile(`(\(\d{2}\)\s*|\b\d{2}\s+)?9?\d{4}[-.\s]?\d{4}\b`),
	},
	{
		category: CategoryEmail,
		re:       regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
	},
	{
		category: CategorySocialMedia,
		re:       regexp.MustCompile(`(?i)(instagram\.com|facebook\.com|fb\.com|twitter\.com|x\.com|tiktok\.com|\binsta\b|\bface\b|(^|\s)@[a-z0-9_.]{3,})`),
	},
	{
		category: CategoryMessagingApp,
		re:       regexp.MustCompile(`(?i)\b(whatsapp|whats|wpp|zap(zap)?|telegram|signal)\b`),
	},
	{
		// "me chama fora da plataforma" and friends, plus the English phrasing.
		category: CategoryExternalContact,
		re:       regexp.MustCompile(`(?i)(fora\s+d[ae]\s+plataforma|por\s+fora|contato\s+direto|me\s+chama\s+no|contact\s+me\s+outside)`),
	},
	{
		category: CategoryURL,
		re:       regexp.MustCompile(`(?i)(https?://\S+|www\.\S+|\b[a-z0-9\-]+\.(com|net|org|io|me)(/\S*)?\b)`),
	},
}

type DetectionResult struct {
	Violated   bool
	Categories []PatternCategory
}

// Detect scans free text for externally-shared contact information.
// It is a pure function; enforcement lives in the policy.
func Detect(text string) DetectionResult {
	var matched []PatternCategory
	for _, family := range patternFamilies {
		if family.re.MatchString(text) {
			matched = append(matched, family.category)
		}
	}
	return DetectionResult{
		Violated:   len(matched) > 0,
		Categories: matched,
	}
}
