package metadata

import (
	"strings"

	"golang.org/x/text/language"
)

const defaultLanguage = "en-US"

// normalizeLanguage turns loose locale input ("en", "pt_br") into the
// language-REGION form TMDB expects, inferring the region when missing.
func normalizeLanguage(value string) string {
	value = strings.TrimSpace(strings.ReplaceAll(value, "_", "-"))
	if value == "" {
		return defaultLanguage
	}
	tag, err := language.Parse(value)
	if err != nil {
		return defaultLanguage
	}
	base, conf := tag.Base()
	if conf == language.No {
		return defaultLanguage
	}
	region, conf := tag.Region()
	if conf == language.No {
		return base.String()
	}
	return base.String() + "-" + region.String()
}
