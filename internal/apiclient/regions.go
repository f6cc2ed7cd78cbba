package apiclient

import "fmt"

// PlatformHost returns the per-region API host used for player/league
// endpoints, e.g. "https://na1.api.riotgames.com".
func PlatformHost(region string) string {
	return fmt.Sprintf("https://%s.api.riotgames.com", region)
}

var regionalByPlatform = map[string]string{
	"na1": "americas", "br1": "americas", "la1": "americas", "la2": "americas",
	"euw1": "europe", "eun1": "europe", "tr1": "europe", "ru": "europe",
	"kr": "asia", "jp1": "asia",
	"oc1": "sea",
}

// RegionalHost returns the continental host used for match endpoints,
// falling back to "americas" for unknown platforms.
func RegionalHost(platformRegion string) string {
	continent, ok := regionalByPlatform[platformRegion]
	if !ok {
		continent = "americas"
	}
	return fmt.Sprintf("https://%s.api.riotgames.com", continent)
}
