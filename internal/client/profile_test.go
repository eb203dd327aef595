package client

import (
	"testing"

	"sc2monitor/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfileURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want models.ProfileRef
	}{
		{
			name: "starcraft2.com with locale",
			url:  "https://starcraft2.com/en-us/profile/2/1/1234567",
			want: models.ProfileRef{Server: models.ServerEurope, Realm: 1, ProfileID: 1234567},
		},
		{
			name: "starcraft2.com without locale",
			url:  "https://starcraft2.com/profile/1/2/999",
			want: models.ProfileRef{Server: models.ServerAmerica, Realm: 2, ProfileID: 999},
		},
		{
			name: "starcraft2.com trailing slash",
			url:  "http://starcraft2.com/de-de/profile/3/1/42/",
			want: models.ProfileRef{Server: models.ServerKorea, Realm: 1, ProfileID: 42},
		},
		{
			name: "case insensitive",
			url:  "HTTPS://STARCRAFT2.COM/profile/2/2/777",
			want: models.ProfileRef{Server: models.ServerEurope, Realm: 2, ProfileID: 777},
		},
		{
			name: "legacy eu.battle.net",
			url:  "http://eu.battle.net/sc2/en/profile/1234567/1/SomeName/",
			want: models.ProfileRef{Server: models.ServerEurope, Realm: 1, ProfileID: 1234567},
		},
		{
			name: "legacy us.battle.net",
			url:  "https://us.battle.net/sc2/en/profile/55/2/OtherName",
			want: models.ProfileRef{Server: models.ServerAmerica, Realm: 2, ProfileID: 55},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProfileURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseProfileURL_Invalid(t *testing.T) {
	urls := []string{
		"",
		"not a url",
		"https://example.com/profile/1/1/2",
		"https://starcraft2.com/profile/6/1/2",   // server code out of range
		"https://starcraft2.com/profile/1/3/2",   // realm out of range
		"https://kr.battle.net/sc2/en/profile/1/1/Name", // unsupported legacy region
		"https://starcraft2.com/ladder/1/1/2",
	}

	for _, url := range urls {
		_, err := ParseProfileURL(url)
		assert.ErrorIs(t, err, ErrInvalidProfileURL, "url: %s", url)
	}
}
