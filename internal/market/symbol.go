package market

import "strings"

// assetAliases maps common tickers to canonical asset IDs.
var assetAliases = map[string]string{
	"bitcoin":  "bitcoin",
	"btc":      "bitcoin",
	"ethereum": "ethereum",
	"eth":      "ethereum",
}

// Normalize lowercases an asset name and resolves known ticker aliases.
// Unknown names pass through lowercased so the support check can reject
// them with the original spelling intact.
func Normalize(asset string) string {
	lower := strings.ToLower(strings.TrimSpace(asset))
	if id, ok := assetAliases[lower]; ok {
		return id
	}
	return lower
}
