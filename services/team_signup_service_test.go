package services

import (
	"context"
	"testing"
	"time"

	"github.com/5v5games/booking-system/models"
	"github.com/5v5games/booking-system/repositories"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTeamSignupServiceWithMock(t *testing.T) (TeamSignupService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewTeamSignupService(
		db,
		repositories.NewPostgresTournamentTeamRepository(db),
		repositories.NewPostgresTournamentRepository(db),
	)
	return svc, mock
}

func teamColumns() []string {
	return []string{"id", "tournament_id", "team_name", "captain_id", "invitation_code", "status", "registration_date"}
}

func teamRow(id int, status models.TeamStatus) *sqlmock.Rows {
	return sqlmock.NewRows(teamColumns()).
		AddRow(id, 4, "Torpedo", 7, "aabbccddeeff00112233445566778899", string(status), time.Now())
}

func TestCreateTournamentTeam(t *testing.T) {
	t.Run("creates a team with the captain as first member", func(t *testing.T) {
		svc, mock := newTeamSignupServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM tournament_teams\s+WHERE tournament_id = \$1 AND captain_id = \$2`).
			WithArgs(4, 7).
			WillReturnRows(sqlmock.NewRows(teamColumns()))
		mock.ExpectQuery(`INSERT INTO tournament_teams`).
			WithArgs(4, "Torpedo", 7, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status", "registration_date"}).
				AddRow(12, string(models.TeamForming), time.Now()))
		mock.ExpectQuery(`INSERT INTO tournament_team_members`).
			WithArgs(12, 7, "Yernur", true).
			WillReturnRows(sqlmock.NewRows([]string{"id", "joined_at"}).AddRow(1, time.Now()))
		mock.ExpectCommit()

		result, err := svc.Create(context.Background(), CreateTeamInput{
			TournamentID: 4, TeamName: "Torpedo", CaptainID: 7, CaptainName: "Yernur",
		})
		require.NoError(t, err)
		assert.False(t, result.AlreadyExisting)
		assert.Equal(t, 12, result.Team.ID)
		assert.Len(t, result.Team.InvitationCode, 32)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("repeat create returns the existing team", func(t *testing.T) {
		svc, mock := newTeamSignupServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM tournament_teams\s+WHERE tournament_id = \$1 AND captain_id = \$2`).
			WithArgs(4, 7).
			WillReturnRows(teamRow(12, models.TeamForming))
		mock.ExpectCommit()

		result, err := svc.Create(context.Background(), CreateTeamInput{
			TournamentID: 4, TeamName: "Torpedo", CaptainID: 7, CaptainName: "Yernur",
		})
		require.NoError(t, err)
		assert.True(t, result.AlreadyExisting)
		assert.Equal(t, "aabbccddeeff00112233445566778899", result.Team.InvitationCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loses the captain race and returns the winner's team", func(t *testing.T) {
		svc, mock := newTeamSignupServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM tournament_teams\s+WHERE tournament_id = \$1 AND captain_id = \$2`).
			WithArgs(4, 7).
			WillReturnRows(sqlmock.NewRows(teamColumns()))
		mock.ExpectQuery(`INSERT INTO tournament_teams`).
			WithArgs(4, "Torpedo", 7, sqlmock.AnyArg()).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "tournament_teams_tournament_id_captain_id_key"})
		mock.ExpectQuery(`FROM tournament_teams\s+WHERE tournament_id = \$1 AND captain_id = \$2`).
			WithArgs(4, 7).
			WillReturnRows(teamRow(13, models.TeamForming))
		mock.ExpectCommit()

		result, err := svc.Create(context.Background(), CreateTeamInput{
			TournamentID: 4, TeamName: "Torpedo", CaptainID: 7, CaptainName: "Yernur",
		})
		require.NoError(t, err)
		assert.True(t, result.AlreadyExisting)
		assert.Equal(t, 13, result.Team.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("requires a team name", func(t *testing.T) {
		svc, _ := newTeamSignupServiceWithMock(t)

		_, err := svc.Create(context.Background(), CreateTeamInput{TournamentID: 4, CaptainID: 7})
		assert.ErrorIs(t, err, ErrTeamNameRequired)
	})

	t.Run("rejects an unknown tournament", func(t *testing.T) {
		svc, mock := newTeamSignupServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM tournament_teams\s+WHERE tournament_id = \$1 AND captain_id = \$2`).
			WithArgs(99, 7).
			WillReturnRows(sqlmock.NewRows(teamColumns()))
		mock.ExpectQuery(`INSERT INTO tournament_teams`).
			WithArgs(99, "Torpedo", 7, sqlmock.AnyArg()).
			WillReturnError(&pq.Error{Code: "23503"})
		mock.ExpectRollback()

		_, err := svc.Create(context.Background(), CreateTeamInput{
			TournamentID: 99, TeamName: "Torpedo", CaptainID: 7, CaptainName: "Yernur",
		})
		assert.ErrorIs(t, err, ErrTournamentNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestJoinTournamentTeam(t *testing.T) {
	t.Run("caps the roster at eight players", func(t *testing.T) {
		svc, mock := newTeamSignupServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM tournament_teams\s+WHERE invitation_code = \$1\s+FOR UPDATE`).
			WithArgs("aabbccddeeff00112233445566778899").
			WillReturnRows(teamRow(12, models.TeamForming))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tournament_team_members`).
			WithArgs(12).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(8))
		mock.ExpectRollback()

		err := svc.Join(context.Background(), "aabbccddeeff00112233445566778899", 20, "Marat")
		assert.ErrorIs(t, err, ErrTeamFull)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("only forming teams accept players", func(t *testing.T) {
		svc, mock := newTeamSignupServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM tournament_teams\s+WHERE invitation_code = \$1\s+FOR UPDATE`).
			WithArgs("aabbccddeeff00112233445566778899").
			WillReturnRows(teamRow(12, models.TeamRegistered))
		mock.ExpectRollback()

		err := svc.Join(context.Background(), "aabbccddeeff00112233445566778899", 20, "Marat")
		assert.ErrorIs(t, err, ErrTeamNotForming)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("refuses a repeat join", func(t *testing.T) {
		svc, mock := newTeamSignupServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM tournament_teams\s+WHERE invitation_code = \$1\s+FOR UPDATE`).
			WithArgs("aabbccddeeff00112233445566778899").
			WillReturnRows(teamRow(12, models.TeamForming))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tournament_team_members`).
			WithArgs(12).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectQuery(`INSERT INTO tournament_team_members`).
			WithArgs(12, 20, "Marat", false).
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		err := svc.Join(context.Background(), "aabbccddeeff00112233445566778899", 20, "Marat")
		assert.ErrorIs(t, err, ErrAlreadyInTeam)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRemovePlayerFromTournamentTeam(t *testing.T) {
	t.Run("the captain cannot be removed", func(t *testing.T) {
		svc, mock := newTeamSignupServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM tournament_teams\s+WHERE invitation_code = \$1\s+FOR UPDATE`).
			WithArgs("aabbccddeeff00112233445566778899").
			WillReturnRows(teamRow(12, models.TeamForming))
		// DELETE с is_captain = FALSE не трогает капитана.
		mock.ExpectExec(`DELETE FROM tournament_team_members WHERE team_id = \$1 AND user_id = \$2 AND is_captain = FALSE`).
			WithArgs(12, 7).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := svc.RemovePlayer(context.Background(), "aabbccddeeff00112233445566778899", 7, 7)
		assert.ErrorIs(t, err, ErrPlayerNotInTeam)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-captains cannot remove players", func(t *testing.T) {
		svc, mock := newTeamSignupServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM tournament_teams\s+WHERE invitation_code = \$1\s+FOR UPDATE`).
			WithArgs("aabbccddeeff00112233445566778899").
			WillReturnRows(teamRow(12, models.TeamForming))
		mock.ExpectRollback()

		err := svc.RemovePlayer(context.Background(), "aabbccddeeff00112233445566778899", 20, 21)
		assert.ErrorIs(t, err, ErrCaptainActionForbidden)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestConfirmTeamRegistration(t *testing.T) {
	lockedRow := func(memberCount int) *sqlmock.Rows {
		return sqlmock.NewRows(append(teamColumns(), "member_count")).
			AddRow(12, 4, "Torpedo", 7, "aabbccddeeff00112233445566778899", string(models.TeamForming), time.Now(), memberCount)
	}

	t.Run("registers a team with six players", func(t *testing.T) {
		svc, mock := newTeamSignupServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE OF tt`).
			WithArgs("aabbccddeeff00112233445566778899", 4, 7).
			WillReturnRows(lockedRow(6))
		mock.ExpectExec(`UPDATE tournament_teams SET status = \$1 WHERE id = \$2`).
			WithArgs(string(models.TeamRegistered), 12).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		team, err := svc.ConfirmRegistration(context.Background(), "aabbccddeeff00112233445566778899", 4, 7)
		require.NoError(t, err)
		assert.Equal(t, models.TeamRegistered, team.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("refuses a roster below six", func(t *testing.T) {
		svc, mock := newTeamSignupServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE OF tt`).
			WithArgs("aabbccddeeff00112233445566778899", 4, 7).
			WillReturnRows(lockedRow(5))
		mock.ExpectRollback()

		_, err := svc.ConfirmRegistration(context.Background(), "aabbccddeeff00112233445566778899", 4, 7)
		assert.ErrorIs(t, err, ErrNotEnoughPlayers)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("only the captain's own team confirms", func(t *testing.T) {
		svc, mock := newTeamSignupServiceWithMock(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE OF tt`).
			WithArgs("aabbccddeeff00112233445566778899", 4, 99).
			WillReturnRows(sqlmock.NewRows(append(teamColumns(), "member_count")))
		mock.ExpectRollback()

		_, err := svc.ConfirmRegistration(context.Background(), "aabbccddeeff00112233445566778899", 4, 99)
		assert.ErrorIs(t, err, ErrTeamNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
