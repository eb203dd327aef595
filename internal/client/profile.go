package client

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"sc2monitor/ingestion/internal/models"
)

// The two supported profile URL grammars. The first embeds the numeric region
// code directly; the second is the legacy battle.net shape with an eu/us
// subdomain and swapped profile/realm order.
var (
	profileURLPattern = regexp.MustCompile(
		`(?i)^https?://starcraft2\.com/(?:\w+-\w+/)?profile/([1-5])/([1-2])/(\d+)/?`)
	legacyProfileURLPattern = regexp.MustCompile(
		`(?i)^https?://(eu|us)\.battle\.net/sc2/\w+/profile/(\d+)/([1-2])/\w+/?`)
)

// ParseProfileURL extracts (server, realm, profile id) from a profile URL.
// Both grammars are tried in order; the first match wins. Unparseable input
// fails with ErrInvalidProfileURL.
func ParseProfileURL(rawURL string) (models.ProfileRef, error) {
	if m := profileURLPattern.FindStringSubmatch(rawURL); m != nil {
		serverID, _ := strconv.Atoi(m[1])
		realm, _ := strconv.Atoi(m[2])
		profileID, _ := strconv.Atoi(m[3])
		return models.ProfileRef{
			Server:    models.ServerFromID(serverID),
			Realm:     realm,
			ProfileID: profileID,
		}, nil
	}

	if m := legacyProfileURLPattern.FindStringSubmatch(rawURL); m != nil {
		server := models.ServerAmerica
		if strings.EqualFold(m[1], "eu") {
			server = models.ServerEurope
		}
		profileID, _ := strconv.Atoi(m[2])
		realm, _ := strconv.Atoi(m[3])
		return models.ProfileRef{
			Server:    server,
			Realm:     realm,
			ProfileID: profileID,
		}, nil
	}

	return models.ProfileRef{}, fmt.Errorf("%w: %s", ErrInvalidProfileURL, rawURL)
}
