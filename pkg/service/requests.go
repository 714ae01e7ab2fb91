// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package service

import (
	"strings"

	validator "github.com/AccelByte/justice-input-validation-go"

	"github.com/AccelByte/octanescore-matchmaker/pkg/models"
)

type LinkProfileRequest struct {
	PlayerID string `json:"player_id" valid:"stringlength(1|64)"`
	Handle   string `json:"handle"    valid:"stringlength(1|32)"`
	Platform string `json:"platform"  valid:"stringlength(1|32)"`
	Region   string `json:"region"    valid:"stringlength(1|16)"`
}

func (r LinkProfileRequest) Validate() error {
	if err := requireFields(
		field{"player id", r.PlayerID},
		field{"handle", r.Handle},
		field{"platform", r.Platform},
	); err != nil {
		return err
	}
	return validateStruct(r)
}

type JoinQueueRequest struct {
	PlayerID string `json:"player_id" valid:"stringlength(1|64)"`
	Region   string `json:"region"    valid:"stringlength(1|16)"`
	Mode     string `json:"mode"      valid:"stringlength(1|16)"`
	TeamSize int    `json:"team_size" valid:"range(1|3)"`

	// MapPref is nil or "Random" for no preference.
	MapPref *string `json:"map_pref,omitempty" optional:"true" valid:"-"`
}

func (r JoinQueueRequest) Validate() error {
	if err := requireFields(field{"player id", r.PlayerID}); err != nil {
		return err
	}
	if r.TeamSize == 0 {
		return &models.ValidationError{Field: "team size", Reason: "missing"}
	}
	return validateStruct(r)
}

type ReportResultRequest struct {
	MatchID    string `json:"match_id"    valid:"stringlength(1|64)"`
	ReporterID string `json:"reporter_id" valid:"stringlength(1|64)"`

	// WinningTeam is required. Whether it names a team is checked by the
	// match registry after the match state and the reporter.
	WinningTeam *int                       `json:"winning_team" valid:"-"`
	Stats       map[string]models.StatLine `json:"stats"        optional:"true" valid:"-"`
}

func (r ReportResultRequest) Validate() error {
	if err := requireFields(field{"match id", r.MatchID}, field{"reporter id", r.ReporterID}); err != nil {
		return err
	}
	if r.WinningTeam == nil {
		return &models.ValidationError{Field: "winning team", Reason: "missing"}
	}
	return validateStruct(r)
}

type field struct {
	name  string
	value string
}

func requireFields(fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &models.ValidationError{Field: f.name, Reason: "missing"}
		}
	}
	return nil
}

func validateStruct(s interface{}) error {
	if _, err := validator.ValidateStruct(s); err != nil {
		return &models.ValidationError{Field: "request", Reason: err.Error()}
	}
	return nil
}
