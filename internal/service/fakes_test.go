package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/revoshq/podengine/internal/models"
	"github.com/revoshq/podengine/internal/transfer"
)

// In-memory fakes for the repository and collaborator interfaces. Only the
// behavior the tests exercise is implemented.

type fakeActivityRepo struct {
	activities map[int64]*models.PodActivity
	nextID     int64

	completeErr error
	retries     []int
	statuses    map[int64][]string
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{
		activities: make(map[int64]*models.PodActivity),
		nextID:     1,
		statuses:   make(map[int64][]string),
	}
}

func (f *fakeActivityRepo) CreateBatch(ctx context.Context, tx *sql.Tx, activities []*models.PodActivity) error {
	for _, a := range activities {
		a.ID = f.nextID
		f.nextID++
		copied := *a
		f.activities[a.ID] = &copied
	}
	return nil
}

func (f *fakeActivityRepo) GetByID(ctx context.Context, id int64) (*models.PodActivity, error) {
	a, ok := f.activities[id]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (f *fakeActivityRepo) ExistsForPost(ctx context.Context, postID int64) (bool, error) {
	for _, a := range f.activities {
		if a.PostID == postID && a.ActivityType == models.ActivityTypeRepost {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeActivityRepo) ExistsDMTrigger(ctx context.Context, postID int64, targetURN string) (bool, error) {
	for _, a := range f.activities {
		if a.PostID == postID && a.ActivityType == models.ActivityTypeDMTrigger && a.TargetURN == targetURN {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeActivityRepo) MarkCompleted(ctx context.Context, id int64, result []byte) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	a := f.activities[id]
	a.Status = models.ActivityStatusCompleted
	a.ExecutionResult = result
	a.LastError = sql.NullString{}
	return nil
}

func (f *fakeActivityRepo) MarkFailed(ctx context.Context, id int64, attempts int, lastError string, result []byte) error {
	a := f.activities[id]
	a.Status = models.ActivityStatusFailed
	a.ExecutionAttempts = attempts
	a.LastError = sql.NullString{String: lastError, Valid: true}
	a.ExecutionResult = result
	return nil
}

func (f *fakeActivityRepo) RecordRetry(ctx context.Context, id int64, attempts int, lastError string) error {
	a := f.activities[id]
	a.ExecutionAttempts = attempts
	a.LastError = sql.NullString{String: lastError, Valid: true}
	f.retries = append(f.retries, attempts)
	return nil
}

func (f *fakeActivityRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	f.activities[id].Status = status
	f.statuses[id] = append(f.statuses[id], status)
	return nil
}

func (f *fakeActivityRepo) ListByStatus(ctx context.Context, status string, limit int) ([]*models.PodActivity, error) {
	var out []*models.PodActivity
	for _, a := range f.activities {
		if a.Status == status && len(out) < limit {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakePostRepo struct {
	posts  map[int64]*models.Post
	nextID int64
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[int64]*models.Post), nextID: 1}
}

func (f *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	id := f.nextID
	f.nextID++
	copied := *post
	copied.ID = id
	f.posts[id] = &copied
	return id, nil
}

func (f *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (f *fakePostRepo) GetByExternalURN(ctx context.Context, urn string) (*models.Post, error) {
	for _, p := range f.posts {
		if p.ExternalURN == urn {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakePostRepo) UpdateStatusByURN(ctx context.Context, urn, status string) error {
	for _, p := range f.posts {
		if p.ExternalURN == urn {
			p.Status = status
		}
	}
	return nil
}

type fakePodRepo struct {
	pods        map[int64]*models.Pod
	memberships []*models.PodMember
}

func (f *fakePodRepo) GetByID(ctx context.Context, id int64) (*models.Pod, error) {
	p, ok := f.pods[id]
	if !ok {
		return nil, nil
	}
	return p, nil
}

func (f *fakePodRepo) GetLatestMembership(ctx context.Context, accountID int64) (*models.PodMember, error) {
	var latest *models.PodMember
	for _, m := range f.memberships {
		if m.AccountID != accountID {
			continue
		}
		if latest == nil || m.CreatedAt.After(latest.CreatedAt) {
			latest = m
		}
	}
	return latest, nil
}

func (f *fakePodRepo) ListMembers(ctx context.Context, podID int64) ([]*models.PodMember, error) {
	var out []*models.PodMember
	for _, m := range f.memberships {
		if m.PodID == podID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakePodRepo) GetMemberByID(ctx context.Context, id int64) (*models.PodMember, error) {
	for _, m := range f.memberships {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

type fakeAccountRepo struct {
	accounts []*models.Account
}

func (f *fakeAccountRepo) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	for _, a := range f.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountRepo) GetByProviderURN(ctx context.Context, urn string) (*models.Account, error) {
	for _, a := range f.accounts {
		if a.ProviderURN == urn {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountRepo) ListActive(ctx context.Context) ([]*models.Account, error) {
	var out []*models.Account
	for _, a := range f.accounts {
		if a.Status == models.AccountStatusActive {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeCampaignRepo struct {
	campaign *models.Campaign
}

func (f *fakeCampaignRepo) GetActiveByAccountID(ctx context.Context, accountID int64) (*models.Campaign, error) {
	if f.campaign != nil && f.campaign.AccountID == accountID {
		return f.campaign, nil
	}
	return nil, nil
}

type fakeLeadRepo struct {
	leads  map[int64]*models.Lead
	nextID int64
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{leads: make(map[int64]*models.Lead), nextID: 1}
}

func (f *fakeLeadRepo) Create(ctx context.Context, lead *models.Lead) (int64, error) {
	id := f.nextID
	f.nextID++
	copied := *lead
	copied.ID = id
	f.leads[id] = &copied
	return id, nil
}

func (f *fakeLeadRepo) GetByProviderURN(ctx context.Context, campaignID int64, urn string) (*models.Lead, error) {
	for _, l := range f.leads {
		if l.CampaignID == campaignID && l.ProviderURN == urn {
			return l, nil
		}
	}
	return nil, nil
}

func (f *fakeLeadRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	f.leads[id].Status = status
	return nil
}

func (f *fakeLeadRepo) MarkEmailCaptured(ctx context.Context, id int64, email string) error {
	l := f.leads[id]
	l.Email = sql.NullString{String: email, Valid: true}
	l.Status = models.LeadStatusEmailCaptured
	return nil
}

type fakeConnectionRepo struct {
	connections map[int64]*models.PendingConnection
	nextID      int64
	matched     []int64
}

func newFakeConnectionRepo() *fakeConnectionRepo {
	return &fakeConnectionRepo{connections: make(map[int64]*models.PendingConnection), nextID: 1}
}

func (f *fakeConnectionRepo) Create(ctx context.Context, pc *models.PendingConnection) (int64, error) {
	id := f.nextID
	f.nextID++
	copied := *pc
	copied.ID = id
	f.connections[id] = &copied
	return id, nil
}

func (f *fakeConnectionRepo) FindOpenBySender(ctx context.Context, senderURN string) (*models.PendingConnection, error) {
	for _, pc := range f.connections {
		if pc.SenderURN == senderURN && pc.Status == models.ConnectionStatusPending {
			return pc, nil
		}
	}
	return nil, nil
}

func (f *fakeConnectionRepo) FindOpenForCampaign(ctx context.Context, campaignID int64, senderURN string) (*models.PendingConnection, error) {
	for _, pc := range f.connections {
		if pc.CampaignID == campaignID && pc.SenderURN == senderURN && pc.Status == models.ConnectionStatusPending {
			return pc, nil
		}
	}
	return nil, nil
}

func (f *fakeConnectionRepo) MarkMatched(ctx context.Context, id int64, note, email string) error {
	pc := f.connections[id]
	pc.Status = models.ConnectionStatusMatched
	pc.CapturedNote = sql.NullString{String: note, Valid: true}
	pc.CapturedEmail = sql.NullString{String: email, Valid: true}
	f.matched = append(f.matched, id)
	return nil
}

type enqueuedJob struct {
	ActivityID int64
	Delay      time.Duration
}

type fakeEnqueuer struct {
	jobs []enqueuedJob
	err  error
}

func (f *fakeEnqueuer) EnqueueActivity(ctx context.Context, activityID int64, delay time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, enqueuedJob{ActivityID: activityID, Delay: delay})
	return nil
}

type fakeProviderClient struct {
	repostErr   error
	dmErr       error
	calls       int
	invitations []transfer.Invitation
	listErr     error
}

func (f *fakeProviderClient) Repost(ctx context.Context, profileID, postURL string) (json.RawMessage, error) {
	f.calls++
	if f.repostErr != nil {
		return nil, f.repostErr
	}
	return json.RawMessage(`{"repost_urn":"urn:share:1"}`), nil
}

func (f *fakeProviderClient) SendDirectMessage(ctx context.Context, profileID, recipientURN, message string) (json.RawMessage, error) {
	f.calls++
	if f.dmErr != nil {
		return nil, f.dmErr
	}
	return json.RawMessage(`{"message_urn":"urn:msg:1"}`), nil
}

func (f *fakeProviderClient) ListInvitations(ctx context.Context, accessToken string, limit int) ([]transfer.Invitation, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.invitations) > limit {
		return f.invitations[:limit], nil
	}
	return f.invitations, nil
}

type deadLetterRecord struct {
	ActivityID int64
	ErrMessage string
	ErrType    string
	Attempts   int
}

type fakeDeadLetters struct {
	records []deadLetterRecord
}

func (f *fakeDeadLetters) Record(ctx context.Context, activityID int64, errMessage, errType string, attempts int) error {
	f.records = append(f.records, deadLetterRecord{activityID, errMessage, errType, attempts})
	return nil
}

func (f *fakeDeadLetters) ListUnresolved(ctx context.Context) ([]*models.DeadLetterEntry, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDeadLetters) Resolve(ctx context.Context, id int64, notes string) error {
	return errors.New("not implemented")
}
