package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sc2monitor/ingestion/internal/models"
)

// gameModeScope restricts ladder memberships and match history to 1v1.
const gameModeScope = "1v1"

// authParams builds the common query parameters carrying the access token.
func (c *Client) authParams(ctx context.Context) (url.Values, error) {
	token, err := c.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}
	return url.Values{
		"locale":       {"en_US"},
		"access_token": {token},
	}, nil
}

// GetSeason fetches the current ladder season for a server.
func (c *Client) GetSeason(ctx context.Context, server models.Server) (*models.Season, error) {
	params, err := c.authParams(ctx)
	if err != nil {
		return nil, err
	}

	apiURL := fmt.Sprintf("%s/sc2/ladder/season/%d", c.apiBaseURL, server.ID())
	payload, status, err := c.apiRequest(ctx, apiURL, params)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &RequestError{Status: status, URL: apiURL}
	}

	return &models.Season{
		SeasonID: intField(payload, "seasonId"),
		Number:   intField(payload, "number"),
		Year:     intField(payload, "year"),
		Server:   server,
		Start:    time.Unix(int64(intField(payload, "startDate")), 0),
		End:      time.Unix(int64(intField(payload, "endDate")), 0),
	}, nil
}

// GetLadders fetches the set of 1v1 ladder ids the profile is a member of.
// Order is irrelevant, hence the set.
func (c *Client) GetLadders(ctx context.Context, profile models.ProfileRef) (map[int]struct{}, error) {
	params, err := c.authParams(ctx)
	if err != nil {
		return nil, err
	}

	apiURL := fmt.Sprintf("%s/sc2/profile/%d/%d/%d/ladder/summary",
		c.apiBaseURL, profile.Server.ID(), profile.Realm, profile.ProfileID)
	payload, status, err := c.apiRequest(ctx, apiURL, params)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &RequestError{Status: status, URL: apiURL}
	}

	ladders := make(map[int]struct{})
	memberships, _ := payload["allLadderMemberships"].([]any)
	for _, m := range memberships {
		membership, ok := m.(map[string]any)
		if !ok {
			continue
		}
		if !strings.Contains(strField(membership, "localizedGameMode"), gameModeScope) {
			continue
		}
		ladders[intField(membership, "ladderId")] = struct{}{}
	}
	return ladders, nil
}

// GetMetadata fetches the profile metadata (display name, clan, avatar).
func (c *Client) GetMetadata(ctx context.Context, profile models.ProfileRef) (map[string]any, error) {
	params, err := c.authParams(ctx)
	if err != nil {
		return nil, err
	}

	apiURL := fmt.Sprintf("%s/sc2/metadata/profile/%d/%d/%d",
		c.apiBaseURL, profile.Server.ID(), profile.Realm, profile.ProfileID)
	payload, status, err := c.apiRequest(ctx, apiURL, params)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &RequestError{Status: status, URL: apiURL}
	}
	return payload, nil
}

// GetLadderData fetches one ladder snapshot and returns a scan over the
// reconciled entries belonging to the profile. The request happens here; the
// returned scan only walks the already-fetched snapshot.
func (c *Client) GetLadderData(ctx context.Context, profile models.ProfileRef, ladderID int) (*LadderScan, error) {
	params, err := c.authParams(ctx)
	if err != nil {
		return nil, err
	}

	apiURL := fmt.Sprintf("%s/sc2/profile/%d/%d/%d/ladder/%d",
		c.apiBaseURL, profile.Server.ID(), profile.Realm, profile.ProfileID, ladderID)
	payload, status, err := c.apiRequest(ctx, apiURL, params)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &RequestError{Status: status, URL: apiURL}
	}

	var snap ladderSnapshot
	if err := decodePayload(payload, &snap); err != nil {
		return nil, fmt.Errorf("ladder %d: %w", ladderID, err)
	}

	return &LadderScan{
		profile:  profile,
		ladderID: ladderID,
		league:   models.ParseLeague(snap.League),
		snap:     snap,
		rec:      newReconciler(profile),
	}, nil
}

// GetMatchHistory fetches the legacy 1v1 match history of a profile, mapped
// to (result, timestamp) pairs in upstream order.
func (c *Client) GetMatchHistory(ctx context.Context, profile models.ProfileRef) ([]models.MatchResult, error) {
	params, err := c.authParams(ctx)
	if err != nil {
		return nil, err
	}

	apiURL := fmt.Sprintf("%s/sc2/legacy/profile/%d/%d/%d/matches",
		c.apiBaseURL, profile.Server.ID(), profile.Realm, profile.ProfileID)
	payload, status, err := c.apiRequest(ctx, apiURL, params)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &RequestError{Status: status, URL: apiURL}
	}

	var history []models.MatchResult
	matches, _ := payload["matches"].([]any)
	for _, m := range matches {
		match, ok := m.(map[string]any)
		if !ok {
			continue
		}
		if strField(match, "type") != gameModeScope {
			continue
		}
		history = append(history, models.MatchResult{
			Result:   models.ParseResult(strField(match, "decision")),
			PlayedAt: time.Unix(int64(intField(match, "date")), 0),
		})
	}
	return history, nil
}
