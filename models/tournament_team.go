package models

import "time"

type TeamStatus string

const (
	TeamForming    TeamStatus = "forming"
	TeamRegistered TeamStatus = "registered"
)

// TournamentTeam описывает постоянный состав, заявленный на конкретный турнир.
// Капитан может создать не более одной команды на турнир
// (unique(tournament_id, captain_id)).
type TournamentTeam struct {
	ID               int        `json:"id" db:"id"`
	TournamentID     int        `json:"tournament_id" db:"tournament_id"`
	TeamName         string     `json:"team_name" db:"team_name"`
	CaptainID        int        `json:"captain_id" db:"captain_id"`
	InvitationCode   string     `json:"invitation_code" db:"invitation_code"`
	Status           TeamStatus `json:"status" db:"status"`
	RegistrationDate time.Time  `json:"registration_date" db:"registration_date"`

	CaptainName *string `json:"captain_name,omitempty" db:"-"`
	MemberCount int     `json:"member_count,omitempty" db:"-"`
}

// TournamentTeamMember уникален в паре (team_id, user_id); капитанская
// строка вставляется атомарно с созданием команды и не может быть удалена.
type TournamentTeamMember struct {
	ID        int       `json:"id" db:"id"`
	TeamID    int       `json:"team_id" db:"team_id"`
	UserID    int       `json:"user_id" db:"user_id"`
	UserName  string    `json:"user_name" db:"user_name"`
	IsCaptain bool      `json:"is_captain" db:"is_captain"`
	JoinedAt  time.Time `json:"joined_at" db:"joined_at"`
}
