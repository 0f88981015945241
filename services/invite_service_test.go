package services

import (
	"context"
	"testing"
	"time"

	"github.com/clubvolley/club-system/models"
	"github.com/clubvolley/club-system/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClubCodeRepo struct {
	nextID int
	codes  map[int]*models.ClubCode
}

func newFakeClubCodeRepo() *fakeClubCodeRepo {
	return &fakeClubCodeRepo{nextID: 1, codes: make(map[int]*models.ClubCode)}
}

func (r *fakeClubCodeRepo) Create(ctx context.Context, code *models.ClubCode) error {
	for _, existing := range r.codes {
		if existing.Code == code.Code {
			return repositories.ErrClubCodeConflict
		}
	}
	code.ID = r.nextID
	r.nextID++
	copied := *code
	r.codes[code.ID] = &copied
	return nil
}

func (r *fakeClubCodeRepo) GetByCode(ctx context.Context, code string) (*models.ClubCode, error) {
	for _, existing := range r.codes {
		if existing.Code == code {
			copied := *existing
			return &copied, nil
		}
	}
	return nil, repositories.ErrClubCodeNotFound
}

func (r *fakeClubCodeRepo) ListByClubID(ctx context.Context, clubID int) ([]models.ClubCode, error) {
	var out []models.ClubCode
	for _, code := range r.codes {
		if code.ClubID == clubID {
			out = append(out, *code)
		}
	}
	return out, nil
}

func (r *fakeClubCodeRepo) IncrementUses(ctx context.Context, id int) error {
	code, ok := r.codes[id]
	if !ok || code.Status != models.ClubCodeActive || code.Uses >= code.MaxUses || time.Now().After(code.ExpiresAt) {
		return repositories.ErrClubCodeNotFound
	}
	code.Uses++
	return nil
}

func (r *fakeClubCodeRepo) Revoke(ctx context.Context, id int) error {
	code, ok := r.codes[id]
	if !ok {
		return repositories.ErrClubCodeNotFound
	}
	code.Status = models.ClubCodeRevoked
	return nil
}

func (r *fakeClubCodeRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var deleted int64
	for id, code := range r.codes {
		if time.Now().After(code.ExpiresAt) {
			delete(r.codes, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeAssistantRequestRepo struct {
	nextID   int
	requests map[int]*models.AssistantRequest
}

func newFakeAssistantRequestRepo() *fakeAssistantRequestRepo {
	return &fakeAssistantRequestRepo{nextID: 1, requests: make(map[int]*models.AssistantRequest)}
}

func (r *fakeAssistantRequestRepo) Create(ctx context.Context, req *models.AssistantRequest) error {
	for _, existing := range r.requests {
		if existing.ProfileID == req.ProfileID && existing.Status == models.AssistantPending {
			return repositories.ErrAssistantRequestConflict
		}
	}
	req.ID = r.nextID
	r.nextID++
	copied := *req
	r.requests[req.ID] = &copied
	return nil
}

func (r *fakeAssistantRequestRepo) GetByID(ctx context.Context, id int) (*models.AssistantRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, repositories.ErrAssistantRequestNotFound
	}
	copied := *req
	return &copied, nil
}

func (r *fakeAssistantRequestRepo) ListPendingByClubID(ctx context.Context, clubID int) ([]models.AssistantRequest, error) {
	var out []models.AssistantRequest
	for _, req := range r.requests {
		if req.ClubID == clubID && req.Status == models.AssistantPending {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *fakeAssistantRequestRepo) UpdateStatus(ctx context.Context, id int, status models.AssistantRequestStatus) error {
	req, ok := r.requests[id]
	if !ok || req.Status != models.AssistantPending {
		return repositories.ErrAssistantRequestNotFound
	}
	req.Status = status
	return nil
}

type fakeClubRepo struct {
	clubs map[int]*models.Club
}

func (r *fakeClubRepo) Create(ctx context.Context, club *models.Club) error { return nil }
func (r *fakeClubRepo) GetByID(ctx context.Context, id int) (*models.Club, error) {
	club, ok := r.clubs[id]
	if !ok {
		return nil, repositories.ErrClubNotFound
	}
	return club, nil
}
func (r *fakeClubRepo) GetByOwnerID(ctx context.Context, ownerID int) (*models.Club, error) {
	for _, club := range r.clubs {
		if club.OwnerID == ownerID {
			return club, nil
		}
	}
	return nil, repositories.ErrClubNotFound
}
func (r *fakeClubRepo) Update(ctx context.Context, club *models.Club) error { return nil }
func (r *fakeClubRepo) UpdateCrestKey(ctx context.Context, id int, key *string) error {
	return nil
}

// --- сборка ----------------------------------------------------------------

type inviteFixture struct {
	service     InviteService
	codeRepo    *fakeClubCodeRepo
	requestRepo *fakeAssistantRequestRepo
	profileRepo *fakeProfileRepo
}

const (
	inviteClubID    = 1
	inviteOwnerID   = 100
	candidateID     = 200
	strangerOwnerID = 300
)

func newInviteFixture(t *testing.T) *inviteFixture {
	t.Helper()

	clubID := inviteClubID
	f := &inviteFixture{
		codeRepo:    newFakeClubCodeRepo(),
		requestRepo: newFakeAssistantRequestRepo(),
		profileRepo: &fakeProfileRepo{profiles: map[int]*models.Profile{
			inviteOwnerID: {ID: inviteOwnerID, Role: models.RoleHeadCoach, ClubID: &clubID},
			candidateID:   {ID: candidateID, Role: models.RoleHeadCoach},
		}},
	}
	clubRepo := &fakeClubRepo{clubs: map[int]*models.Club{
		inviteClubID: {ID: inviteClubID, OwnerID: inviteOwnerID, Name: "Riverside VC"},
	}}
	f.service = NewInviteService(f.codeRepo, f.requestRepo, clubRepo, f.profileRepo)
	return f
}

func (f *inviteFixture) generateCode(t *testing.T, maxUses int) *models.ClubCode {
	t.Helper()
	code, err := f.service.GenerateClubCode(context.Background(), inviteClubID, maxUses, inviteOwnerID)
	require.NoError(t, err)
	return code
}

// --- тесты -----------------------------------------------------------------

func TestGenerateClubCode(t *testing.T) {
	f := newInviteFixture(t)

	code := f.generateCode(t, 0)
	assert.Len(t, code.Code, 8)
	assert.Equal(t, defaultMaxUses, code.MaxUses, "zero max uses falls back to the default")
	assert.Equal(t, models.ClubCodeActive, code.Status)
	assert.True(t, code.ExpiresAt.After(time.Now()))

	// Алфавит без неоднозначных символов.
	for _, ch := range code.Code {
		assert.NotContains(t, "0O1I", string(ch))
	}
}

func TestGenerateClubCodeRequiresOwner(t *testing.T) {
	f := newInviteFixture(t)

	_, err := f.service.GenerateClubCode(context.Background(), inviteClubID, 5, candidateID)
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestRedeemCodeCreatesPendingRequest(t *testing.T) {
	f := newInviteFixture(t)
	code := f.generateCode(t, 5)

	request, err := f.service.RedeemCode(context.Background(), code.Code, candidateID)
	require.NoError(t, err)
	assert.Equal(t, inviteClubID, request.ClubID)
	assert.Equal(t, candidateID, request.ProfileID)
	assert.Equal(t, models.AssistantPending, request.Status)

	// Использование списано.
	stored := f.codeRepo.codes[code.ID]
	assert.Equal(t, 1, stored.Uses)

	// Роль и клуб до одобрения не меняются.
	profile := f.profileRepo.profiles[candidateID]
	assert.Equal(t, models.RoleHeadCoach, profile.Role)
	assert.Nil(t, profile.ClubID)
}

func TestRedeemCodeRejectsRevoked(t *testing.T) {
	f := newInviteFixture(t)
	code := f.generateCode(t, 5)
	require.NoError(t, f.service.RevokeClubCode(context.Background(), code.ID, inviteClubID, inviteOwnerID))

	_, err := f.service.RedeemCode(context.Background(), code.Code, candidateID)
	assert.ErrorIs(t, err, ErrCodeRevoked)
}

func TestRedeemCodeRejectsExpired(t *testing.T) {
	f := newInviteFixture(t)
	code := f.generateCode(t, 5)
	f.codeRepo.codes[code.ID].ExpiresAt = time.Now().Add(-time.Hour)

	_, err := f.service.RedeemCode(context.Background(), code.Code, candidateID)
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestRedeemCodeRejectsExhausted(t *testing.T) {
	f := newInviteFixture(t)
	code := f.generateCode(t, 1)
	f.codeRepo.codes[code.ID].Uses = 1

	_, err := f.service.RedeemCode(context.Background(), code.Code, candidateID)
	assert.ErrorIs(t, err, ErrCodeExhausted)
}

func TestRedeemCodeRejectsMemberOfAClub(t *testing.T) {
	f := newInviteFixture(t)
	code := f.generateCode(t, 5)

	_, err := f.service.RedeemCode(context.Background(), code.Code, inviteOwnerID)
	assert.ErrorIs(t, err, ErrAlreadyInClub)
}

func TestRedeemUnknownCode(t *testing.T) {
	f := newInviteFixture(t)

	_, err := f.service.RedeemCode(context.Background(), "NOPE2345", candidateID)
	assert.ErrorIs(t, err, ErrClubCodeNotFound)
}

func TestApproveRequestPromotesCandidate(t *testing.T) {
	f := newInviteFixture(t)
	code := f.generateCode(t, 5)
	request, err := f.service.RedeemCode(context.Background(), code.Code, candidateID)
	require.NoError(t, err)

	require.NoError(t, f.service.ApproveRequest(context.Background(), request.ID, inviteOwnerID))

	profile := f.profileRepo.profiles[candidateID]
	assert.Equal(t, models.RoleAssistantCoach, profile.Role)
	require.NotNil(t, profile.ClubID)
	assert.Equal(t, inviteClubID, *profile.ClubID)

	stored, err := f.requestRepo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssistantApproved, stored.Status)
}

func TestRejectRequestLeavesProfileUntouched(t *testing.T) {
	f := newInviteFixture(t)
	code := f.generateCode(t, 5)
	request, err := f.service.RedeemCode(context.Background(), code.Code, candidateID)
	require.NoError(t, err)

	require.NoError(t, f.service.RejectRequest(context.Background(), request.ID, inviteOwnerID))

	profile := f.profileRepo.profiles[candidateID]
	assert.Equal(t, models.RoleHeadCoach, profile.Role)
	assert.Nil(t, profile.ClubID)

	stored, err := f.requestRepo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssistantRejected, stored.Status)
}

func TestDecisionRequiresClubOwner(t *testing.T) {
	f := newInviteFixture(t)
	code := f.generateCode(t, 5)
	request, err := f.service.RedeemCode(context.Background(), code.Code, candidateID)
	require.NoError(t, err)

	err = f.service.ApproveRequest(context.Background(), request.ID, candidateID)
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestListClubCodesFiltersExpired(t *testing.T) {
	f := newInviteFixture(t)
	active := f.generateCode(t, 5)
	expired := f.generateCode(t, 5)
	f.codeRepo.codes[expired.ID].ExpiresAt = time.Now().Add(-time.Minute)

	codes, err := f.service.ListClubCodes(context.Background(), inviteClubID, inviteOwnerID)
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, active.ID, codes[0].ID)
}
