package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/clubvolley/club-system/models"
	"github.com/clubvolley/club-system/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- фейки -----------------------------------------------------------------

type fakeTxManager struct {
	calls int
}

func (m *fakeTxManager) WithTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	m.calls++
	return fn(nil)
}

type fakeSessionRepo struct {
	nextID   int
	sessions map[int]*models.Session
	sets     map[int]*models.Set
	setOrder []int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		nextID:   1,
		sessions: make(map[int]*models.Session),
		sets:     make(map[int]*models.Set),
	}
}

func (r *fakeSessionRepo) Create(ctx context.Context, exec repositories.SQLExecutor, session *models.Session) error {
	session.ID = r.nextID
	r.nextID++
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, id int) (*models.Session, error) {
	session, ok := r.sessions[id]
	if !ok {
		return nil, repositories.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *fakeSessionRepo) ListByClubID(ctx context.Context, clubID int) ([]models.Session, error) {
	var out []models.Session
	for _, s := range r.sessions {
		if s.ClubID == clubID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) CreateSet(ctx context.Context, exec repositories.SQLExecutor, set *models.Set) error {
	set.ID = r.nextID
	r.nextID++
	copied := *set
	r.sets[set.ID] = &copied
	r.setOrder = append(r.setOrder, set.ID)
	return nil
}

func (r *fakeSessionRepo) GetSetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Set, error) {
	set, ok := r.sets[id]
	if !ok {
		return nil, repositories.ErrSetNotFound
	}
	copied := *set
	return &copied, nil
}

func (r *fakeSessionRepo) ListSetsBySessionID(ctx context.Context, sessionID int) ([]models.Set, error) {
	var out []models.Set
	for _, id := range r.setOrder {
		if r.sets[id].SessionID == sessionID {
			out = append(out, *r.sets[id])
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) AddToSetScore(ctx context.Context, exec repositories.SQLExecutor, setID, deltaTeam, deltaOpponent int) error {
	set, ok := r.sets[setID]
	if !ok {
		return repositories.ErrSetNotFound
	}
	set.TeamScore += deltaTeam
	set.OpponentScore += deltaOpponent
	return nil
}

type fakeActionRepo struct {
	nextID  int
	actions []models.Action
}

func newFakeActionRepo() *fakeActionRepo {
	return &fakeActionRepo{nextID: 1}
}

func (r *fakeActionRepo) Create(ctx context.Context, exec repositories.SQLExecutor, action *models.Action) error {
	action.ID = r.nextID
	r.nextID++
	r.actions = append(r.actions, *action)
	return nil
}

func (r *fakeActionRepo) ListBySessionID(ctx context.Context, sessionID int) ([]models.Action, error) {
	var out []models.Action
	for _, a := range r.actions {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeActionRepo) GetLastByCreator(ctx context.Context, exec repositories.SQLExecutor, sessionID, creatorID int) (*models.Action, error) {
	var last *models.Action
	for i := range r.actions {
		a := r.actions[i]
		if a.SessionID != sessionID || a.CreatorID != creatorID {
			continue
		}
		if last == nil || a.ID > last.ID {
			copied := a
			last = &copied
		}
	}
	if last == nil {
		return nil, repositories.ErrActionNotFound
	}
	return last, nil
}

func (r *fakeActionRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	for i := range r.actions {
		if r.actions[i].ID == id {
			r.actions = append(r.actions[:i], r.actions[i+1:]...)
			return nil
		}
	}
	return repositories.ErrActionNotFound
}

func (r *fakeActionRepo) SummarizeBySessionID(ctx context.Context, sessionID int) ([]models.PlayerActionSummary, error) {
	return nil, nil
}

type fakeTeamRepo struct {
	teams map[int]*models.Team
}

func (r *fakeTeamRepo) Create(ctx context.Context, team *models.Team) error { return nil }
func (r *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return team, nil
}
func (r *fakeTeamRepo) ListByClubID(ctx context.Context, clubID int) ([]models.Team, error) {
	return nil, nil
}
func (r *fakeTeamRepo) Update(ctx context.Context, team *models.Team) error { return nil }
func (r *fakeTeamRepo) Delete(ctx context.Context, id int) error            { return nil }

type fakeProfileRepo struct {
	nextID   int
	profiles map[int]*models.Profile
}

func (r *fakeProfileRepo) Create(ctx context.Context, profile *models.Profile) error {
	for _, existing := range r.profiles {
		if existing.Email == profile.Email {
			return repositories.ErrProfileEmailConflict
		}
	}
	r.nextID++
	profile.ID = r.nextID + 1000
	copied := *profile
	r.profiles[profile.ID] = &copied
	return nil
}
func (r *fakeProfileRepo) GetByID(ctx context.Context, id int) (*models.Profile, error) {
	profile, ok := r.profiles[id]
	if !ok {
		return nil, repositories.ErrProfileNotFound
	}
	return profile, nil
}
func (r *fakeProfileRepo) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	for _, profile := range r.profiles {
		if profile.Email == email {
			return profile, nil
		}
	}
	return nil, repositories.ErrProfileNotFound
}
func (r *fakeProfileRepo) Update(ctx context.Context, profile *models.Profile) error {
	r.profiles[profile.ID] = profile
	return nil
}
func (r *fakeProfileRepo) ListByClubID(ctx context.Context, clubID int) ([]models.Profile, error) {
	return nil, nil
}

type fakeBroadcaster struct {
	sessionIDs []int
	sets       []*models.Set
}

func (b *fakeBroadcaster) BroadcastScore(sessionID int, set *models.Set) {
	b.sessionIDs = append(b.sessionIDs, sessionID)
	b.sets = append(b.sets, set)
}

// --- сборка ----------------------------------------------------------------

type statsFixture struct {
	service     StatsService
	tx          *fakeTxManager
	sessionRepo *fakeSessionRepo
	actionRepo  *fakeActionRepo
	broadcaster *fakeBroadcaster
}

const (
	testClubID  = 1
	testTeamID  = 10
	testCoachID = 100
)

func newStatsFixture(t *testing.T) *statsFixture {
	t.Helper()

	clubID := testClubID
	teamRepo := &fakeTeamRepo{teams: map[int]*models.Team{
		testTeamID: {ID: testTeamID, ClubID: testClubID, Name: "U16 Boys"},
	}}
	profileRepo := &fakeProfileRepo{profiles: map[int]*models.Profile{
		testCoachID: {ID: testCoachID, Role: models.RoleHeadCoach, ClubID: &clubID},
	}}

	f := &statsFixture{
		tx:          &fakeTxManager{},
		sessionRepo: newFakeSessionRepo(),
		actionRepo:  newFakeActionRepo(),
		broadcaster: &fakeBroadcaster{},
	}
	f.service = NewStatsService(
		f.tx,
		f.sessionRepo,
		f.actionRepo,
		teamRepo,
		profileRepo,
		f.broadcaster,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return f
}

func (f *statsFixture) startSession(t *testing.T) (*models.Session, *models.Set) {
	t.Helper()
	session, firstSet, err := f.service.StartSession(context.Background(), StartSessionInput{
		ClubID:    testClubID,
		TeamID:    testTeamID,
		Type:      models.SessionMatch,
		Title:     "vs Rivertown",
		CreatorID: testCoachID,
	})
	require.NoError(t, err)
	return session, firstSet
}

// --- тесты -----------------------------------------------------------------

func TestStartSessionCreatesFirstSet(t *testing.T) {
	f := newStatsFixture(t)

	session, firstSet := f.startSession(t)

	assert.NotZero(t, session.ID)
	require.NotNil(t, firstSet)
	assert.Equal(t, session.ID, firstSet.SessionID)
	assert.Equal(t, 1, firstSet.SetNumber)
	assert.Equal(t, 0, firstSet.TeamScore)
	assert.Equal(t, 0, firstSet.OpponentScore)
	assert.Equal(t, 1, f.tx.calls, "session and first set must share one transaction")
}

func TestStartSessionRejectsInvalidType(t *testing.T) {
	f := newStatsFixture(t)

	_, _, err := f.service.StartSession(context.Background(), StartSessionInput{
		ClubID:    testClubID,
		TeamID:    testTeamID,
		Type:      "friendly",
		Title:     "vs Rivertown",
		CreatorID: testCoachID,
	})
	assert.ErrorIs(t, err, ErrInvalidSessionType)
}

func TestStartSessionForbidsForeignTeam(t *testing.T) {
	f := newStatsFixture(t)

	_, _, err := f.service.StartSession(context.Background(), StartSessionInput{
		ClubID:    testClubID,
		TeamID:    999,
		Type:      models.SessionMatch,
		Title:     "vs Rivertown",
		CreatorID: testCoachID,
	})
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestRecordActionScoring(t *testing.T) {
	tests := []struct {
		name         string
		result       models.ActionResult
		wantTeam     int
		wantOpponent int
	}{
		{"point increments team score", models.ResultPoint, 1, 0},
		{"error increments opponent score", models.ResultError, 0, 1},
		{"continue leaves score untouched", models.ResultContinue, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newStatsFixture(t)
			session, firstSet := f.startSession(t)

			action, set, err := f.service.RecordAction(context.Background(), RecordActionInput{
				SessionID: session.ID,
				SetID:     firstSet.ID,
				TeamID:    testTeamID,
				Type:      models.ActionAttack,
				Result:    tt.result,
				CreatorID: testCoachID,
			})
			require.NoError(t, err)
			assert.NotZero(t, action.ID)
			assert.Equal(t, tt.wantTeam, set.TeamScore)
			assert.Equal(t, tt.wantOpponent, set.OpponentScore)

			stored, err := f.sessionRepo.GetSetByID(context.Background(), nil, firstSet.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTeam, stored.TeamScore)
			assert.Equal(t, tt.wantOpponent, stored.OpponentScore)
		})
	}
}

func TestRecordActionRejectsForeignSet(t *testing.T) {
	f := newStatsFixture(t)
	session, _ := f.startSession(t)
	other, otherSet := f.startSession(t)
	require.NotEqual(t, session.ID, other.ID)

	_, _, err := f.service.RecordAction(context.Background(), RecordActionInput{
		SessionID: session.ID,
		SetID:     otherSet.ID,
		TeamID:    testTeamID,
		Type:      models.ActionServe,
		Result:    models.ResultPoint,
		CreatorID: testCoachID,
	})
	assert.ErrorIs(t, err, ErrSetNotFound)
}

func TestRecordActionBroadcastsScore(t *testing.T) {
	f := newStatsFixture(t)
	session, firstSet := f.startSession(t)

	_, _, err := f.service.RecordAction(context.Background(), RecordActionInput{
		SessionID: session.ID,
		SetID:     firstSet.ID,
		TeamID:    testTeamID,
		Type:      models.ActionBlock,
		Result:    models.ResultPoint,
		CreatorID: testCoachID,
	})
	require.NoError(t, err)

	require.Len(t, f.broadcaster.sessionIDs, 1)
	assert.Equal(t, session.ID, f.broadcaster.sessionIDs[0])
	assert.Equal(t, 1, f.broadcaster.sets[0].TeamScore)
}

func TestUndoLastActionRevertsScore(t *testing.T) {
	f := newStatsFixture(t)
	session, firstSet := f.startSession(t)

	record := func(result models.ActionResult) {
		_, _, err := f.service.RecordAction(context.Background(), RecordActionInput{
			SessionID: session.ID,
			SetID:     firstSet.ID,
			TeamID:    testTeamID,
			Type:      models.ActionAttack,
			Result:    result,
			CreatorID: testCoachID,
		})
		require.NoError(t, err)
	}
	record(models.ResultPoint)
	record(models.ResultError)

	// Откатывается самое свежее действие: error, +1 сопернику.
	set, err := f.service.UndoLastAction(context.Background(), session.ID, testCoachID)
	require.NoError(t, err)
	assert.Equal(t, 1, set.TeamScore)
	assert.Equal(t, 0, set.OpponentScore)

	actions, err := f.service.ListSessionActions(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Len(t, actions, 1)

	// Затем point.
	set, err = f.service.UndoLastAction(context.Background(), session.ID, testCoachID)
	require.NoError(t, err)
	assert.Equal(t, 0, set.TeamScore)
	assert.Equal(t, 0, set.OpponentScore)

	// Больше нечего откатывать.
	_, err = f.service.UndoLastAction(context.Background(), session.ID, testCoachID)
	assert.ErrorIs(t, err, ErrActionNotFound)
}

func TestUndoLastActionIgnoresOtherCreators(t *testing.T) {
	f := newStatsFixture(t)
	session, firstSet := f.startSession(t)

	_, _, err := f.service.RecordAction(context.Background(), RecordActionInput{
		SessionID: session.ID,
		SetID:     firstSet.ID,
		TeamID:    testTeamID,
		Type:      models.ActionServe,
		Result:    models.ResultPoint,
		CreatorID: testCoachID,
	})
	require.NoError(t, err)

	// Другой тренер клуба ничего не записывал — откатывать ему нечего.
	clubID := testClubID
	otherCoach := 101
	f.addProfile(otherCoach, &models.Profile{ID: otherCoach, Role: models.RoleAssistantCoach, ClubID: &clubID})

	_, err = f.service.UndoLastAction(context.Background(), session.ID, otherCoach)
	assert.ErrorIs(t, err, ErrActionNotFound)
}

func TestSaveActionsBatchAppliesInOrder(t *testing.T) {
	f := newStatsFixture(t)
	session, firstSet := f.startSession(t)

	zone := 4
	saved, err := f.service.SaveActionsBatch(context.Background(), session.ID, testCoachID, []ActionIntent{
		{TeamID: testTeamID, Type: models.ActionServe, Result: models.ResultPoint},
		{TeamID: testTeamID, Type: models.ActionAttack, Result: models.ResultError, Zone: &zone},
		{TeamID: testTeamID, Type: models.ActionPass, Result: models.ResultContinue},
		{TeamID: testTeamID, Type: models.ActionBlock, Result: models.ResultPoint},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, saved)

	set, err := f.sessionRepo.GetSetByID(context.Background(), nil, firstSet.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, set.TeamScore)
	assert.Equal(t, 1, set.OpponentScore)

	actions, err := f.service.ListSessionActions(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, actions, 4)
	assert.Equal(t, models.ActionServe, actions[0].Type)
	assert.Equal(t, models.ActionBlock, actions[3].Type)
}

func TestSaveActionsBatchValidatesBeforeWriting(t *testing.T) {
	f := newStatsFixture(t)
	session, _ := f.startSession(t)

	_, err := f.service.SaveActionsBatch(context.Background(), session.ID, testCoachID, []ActionIntent{
		{TeamID: testTeamID, Type: models.ActionServe, Result: models.ResultPoint},
		{TeamID: testTeamID, Type: "smash", Result: models.ResultPoint},
	})
	assert.ErrorIs(t, err, ErrInvalidActionType)

	actions, err := f.service.ListSessionActions(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Empty(t, actions, "invalid batch must not leave partial writes")
}

func TestSaveActionsBatchPicksCurrentSet(t *testing.T) {
	f := newStatsFixture(t)
	session, firstSet := f.startSession(t)

	// Первая партия закончена, вторая идёт.
	require.NoError(t, f.sessionRepo.AddToSetScore(context.Background(), nil, firstSet.ID, 25, 20))
	secondSet := &models.Set{SessionID: session.ID, SetNumber: 2, TeamScore: 10, OpponentScore: 8}
	require.NoError(t, f.sessionRepo.CreateSet(context.Background(), nil, secondSet))

	saved, err := f.service.SaveActionsBatch(context.Background(), session.ID, testCoachID, []ActionIntent{
		{TeamID: testTeamID, Type: models.ActionAttack, Result: models.ResultPoint},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	updated, err := f.sessionRepo.GetSetByID(context.Background(), nil, secondSet.ID)
	require.NoError(t, err)
	assert.Equal(t, 11, updated.TeamScore)

	untouched, err := f.sessionRepo.GetSetByID(context.Background(), nil, firstSet.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, untouched.TeamScore)
}

func TestRecorderAuthorization(t *testing.T) {
	f := newStatsFixture(t)
	session, firstSet := f.startSession(t)

	// Тренер чужого клуба не пишет статистику этой сессии.
	otherClub := 2
	stranger := 200
	f.addProfile(stranger, &models.Profile{ID: stranger, Role: models.RoleHeadCoach, ClubID: &otherClub})

	_, _, err := f.service.RecordAction(context.Background(), RecordActionInput{
		SessionID: session.ID,
		SetID:     firstSet.ID,
		TeamID:    testTeamID,
		Type:      models.ActionServe,
		Result:    models.ResultPoint,
		CreatorID: stranger,
	})
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}

// addProfile дописывает профиль в фейковый репозиторий фикстуры.
func (f *statsFixture) addProfile(id int, profile *models.Profile) {
	svc := f.service.(*statsService)
	repo := svc.profileRepo.(*fakeProfileRepo)
	repo.profiles[id] = profile
}
