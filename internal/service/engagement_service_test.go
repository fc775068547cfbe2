package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/revoshq/podengine/configs"
	"github.com/revoshq/podengine/internal/models"
	"github.com/revoshq/podengine/internal/provider"
)

type executorFixture struct {
	activities *fakeActivityRepo
	posts      *fakePostRepo
	pods       *fakePodRepo
	campaigns  *fakeCampaignRepo
	leads      *fakeLeadRepo
	deadLetter *fakeDeadLetters
	client     *fakeProviderClient
	enq        *fakeEnqueuer
	svc        EngagementService
}

func newExecutorFixture(t *testing.T) *executorFixture {
	t.Helper()
	f := &executorFixture{
		activities: newFakeActivityRepo(),
		posts:      newFakePostRepo(),
		deadLetter: &fakeDeadLetters{},
		client:     &fakeProviderClient{},
		enq:        &fakeEnqueuer{},
		leads:      newFakeLeadRepo(),
		campaigns:  &fakeCampaignRepo{},
	}
	f.pods = &fakePodRepo{memberships: []*models.PodMember{
		member(7, 10, 101, true, "prof-a", models.ProfileHealthActive, time.Now()),
	}}

	cfg := config.Config{
		MaxExecutionAttempts: 3,
		RetryBaseDelay:       1 * time.Minute,
		RetryMaxDelay:        30 * time.Minute,
		ExecutionTimeout:     5 * time.Second,
	}
	f.svc = NewEngagementService(cfg, f.activities, f.posts, f.pods, f.campaigns, f.leads, f.deadLetter, f.client, f.enq)
	return f
}

func (f *executorFixture) seedActivity(t *testing.T, activityType string, targetURN string) *models.PodActivity {
	t.Helper()
	postID, err := f.posts.Create(context.Background(), nil, &models.Post{
		AccountID:   100,
		ExternalURN: "urn:post:1",
		URL:         "https://example.com/posts/1",
		Status:      models.PostStatusPublished,
	})
	require.NoError(t, err)

	a := &models.PodActivity{
		PodID:          10,
		MemberID:       7,
		PostID:         postID,
		ActivityType:   activityType,
		TargetURN:      targetURN,
		IdempotencyKey: "key-1",
		ScheduledFor:   time.Now(),
		Status:         models.ActivityStatusPending,
	}
	require.NoError(t, f.activities.CreateBatch(context.Background(), nil, []*models.PodActivity{a}))
	return a
}

func TestExecuteRepostSuccess(t *testing.T) {
	f := newExecutorFixture(t)
	a := f.seedActivity(t, models.ActivityTypeRepost, "")

	require.NoError(t, f.svc.Execute(context.Background(), a.ID))

	stored := f.activities.activities[a.ID]
	assert.Equal(t, models.ActivityStatusCompleted, stored.Status)
	assert.Equal(t, 1, f.client.calls)

	var result models.ExecutionResult
	require.NoError(t, json.Unmarshal(stored.ExecutionResult, &result))
	assert.True(t, result.Success)
	assert.Nil(t, result.Error)
	assert.NotEmpty(t, result.APIResponse)
}

func TestExecuteTerminalStatusIsNoOp(t *testing.T) {
	f := newExecutorFixture(t)
	a := f.seedActivity(t, models.ActivityTypeRepost, "")
	f.activities.activities[a.ID].Status = models.ActivityStatusCompleted

	require.NoError(t, f.svc.Execute(context.Background(), a.ID))
	assert.Zero(t, f.client.calls, "terminal activity must not reach the provider")
}

func TestExecuteRetryableFailuresReachDeadLetterAfterMaxAttempts(t *testing.T) {
	f := newExecutorFixture(t)
	a := f.seedActivity(t, models.ActivityTypeRepost, "")
	f.client.repostErr = &provider.APIError{StatusCode: http.StatusTooManyRequests, Message: "rate limited"}

	// invocation 1 and 2: retry enqueued with doubling backoff
	require.NoError(t, f.svc.Execute(context.Background(), a.ID))
	require.NoError(t, f.svc.Execute(context.Background(), a.ID))
	require.Len(t, f.enq.jobs, 2)
	assert.Equal(t, 1*time.Minute, f.enq.jobs[0].Delay)
	assert.Equal(t, 2*time.Minute, f.enq.jobs[1].Delay)
	assert.Empty(t, f.deadLetter.records)

	// the third invocation reaches the attempt ceiling
	require.NoError(t, f.svc.Execute(context.Background(), a.ID))
	require.Len(t, f.deadLetter.records, 1)
	assert.Equal(t, 3, f.deadLetter.records[0].Attempts)
	assert.Equal(t, models.ErrorTypeRateLimit, f.deadLetter.records[0].ErrType)

	stored := f.activities.activities[a.ID]
	assert.Equal(t, models.ActivityStatusFailed, stored.Status)
	assert.Equal(t, 3, stored.ExecutionAttempts)
	assert.Equal(t, 3, f.client.calls)
}

func TestExecuteTerminalClassificationShortCircuitsRetries(t *testing.T) {
	f := newExecutorFixture(t)
	a := f.seedActivity(t, models.ActivityTypeRepost, "")
	f.client.repostErr = &provider.APIError{StatusCode: http.StatusUnauthorized, Message: "profile revoked"}

	require.NoError(t, f.svc.Execute(context.Background(), a.ID))

	require.Len(t, f.deadLetter.records, 1)
	assert.Equal(t, 1, f.deadLetter.records[0].Attempts)
	assert.Equal(t, models.ErrorTypeAuth, f.deadLetter.records[0].ErrType)
	assert.Empty(t, f.enq.jobs, "terminal failures are never re-enqueued")
	assert.Equal(t, models.ActivityStatusFailed, f.activities.activities[a.ID].Status)
}

func TestExecuteIdempotencyKeyCollisionIsNoOpSuccess(t *testing.T) {
	f := newExecutorFixture(t)
	a := f.seedActivity(t, models.ActivityTypeRepost, "")
	f.activities.completeErr = &pq.Error{Code: "23505"}

	require.NoError(t, f.svc.Execute(context.Background(), a.ID))
	assert.Empty(t, f.deadLetter.records)
	assert.Empty(t, f.enq.jobs)
}

func TestExecuteDMTriggerAdvancesLead(t *testing.T) {
	f := newExecutorFixture(t)
	f.campaigns.campaign = &models.Campaign{
		ID:            1,
		AccountID:     100,
		TriggerPhrase: "GUIDE",
		DMTemplate:    "Here is the guide!",
		Active:        true,
	}
	leadID, err := f.leads.Create(context.Background(), &models.Lead{
		CampaignID:  1,
		ProviderURN: "urn:acct:commenter",
		Status:      models.LeadStatusNew,
	})
	require.NoError(t, err)

	a := f.seedActivity(t, models.ActivityTypeDMTrigger, "urn:acct:commenter")
	require.NoError(t, f.svc.Execute(context.Background(), a.ID))

	assert.Equal(t, models.ActivityStatusCompleted, f.activities.activities[a.ID].Status)
	assert.Equal(t, models.LeadStatusDMSent, f.leads.leads[leadID].Status)
}

func TestExecuteMissingReferencesDeadLetters(t *testing.T) {
	f := newExecutorFixture(t)
	a := &models.PodActivity{
		PodID:          10,
		MemberID:       999, // no such member
		PostID:         888, // no such post
		ActivityType:   models.ActivityTypeRepost,
		IdempotencyKey: "key-x",
		Status:         models.ActivityStatusPending,
	}
	require.NoError(t, f.activities.CreateBatch(context.Background(), nil, []*models.PodActivity{a}))

	require.NoError(t, f.svc.Execute(context.Background(), a.ID))
	require.Len(t, f.deadLetter.records, 1)
	assert.Equal(t, models.ErrorTypeNotFound, f.deadLetter.records[0].ErrType)
	assert.Zero(t, f.client.calls)
}
