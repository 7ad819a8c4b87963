package dto

import (
	"encoding/json"

	"cryptodash/internal/domain"
)

// PreferencesOutput is the preferences block embedded in a dashboard
type PreferencesOutput struct {
	CryptoAssets []string `json:"crypto_assets"`
	InvestorType string   `json:"investor_type"`
	ContentType  []string `json:"content_type"`
}

// DashboardOutput is the body of GET /dashboard and POST /dashboard/refresh/{section}
type DashboardOutput struct {
	DashboardID string                             `json:"dashboard_id"`
	Preferences PreferencesOutput                  `json:"preferences"`
	Sections    map[domain.Section]json.RawMessage `json:"sections"`
}

// ToDashboardOutput converts a stored dashboard to its wire shape
func ToDashboardOutput(d *domain.StoredDashboard, prefs *domain.Preferences) DashboardOutput {
	out := DashboardOutput{
		DashboardID: d.ID.String(),
		Sections:    d.Sections,
	}
	if prefs != nil {
		out.Preferences = PreferencesOutput{
			CryptoAssets: prefs.CryptoAssets,
			InvestorType: prefs.InvestorType,
			ContentType:  prefs.ContentType,
		}
	}
	return out
}

// ToVoteRecords converts stored votes to the GET /votes body; never nil
func ToVoteRecords(votes []*domain.StoredVote) []domain.VoteRecord {
	out := make([]domain.VoteRecord, 0, len(votes))
	for _, v := range votes {
		out = append(out, domain.VoteRecord{Section: v.Section, Item: v.Item, Value: v.Value})
	}
	return out
}
