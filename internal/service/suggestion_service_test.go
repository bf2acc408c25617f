package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/suggestbox-go-api/internal/dto"
	"github.com/noah-isme/suggestbox-go-api/internal/models"
	"github.com/noah-isme/suggestbox-go-api/internal/repository"
)

type suggestionRepoStub struct {
	created    []models.Suggestion
	stored     models.Suggestion
	updateErr  error
	answerErr  error
	wasPending bool
	changes    map[string]interface{}
}

func (s *suggestionRepoStub) Create(ctx context.Context, suggestion *models.Suggestion) error {
	suggestion.ID = uint(len(s.created) + 1)
	s.created = append(s.created, *suggestion)
	return nil
}

func (s *suggestionRepoStub) GetByID(ctx context.Context, id uint) (models.Suggestion, error) {
	if s.stored.ID != id {
		return models.Suggestion{}, gorm.ErrRecordNotFound
	}
	return s.stored, nil
}

func (s *suggestionRepoStub) ListForOwner(ctx context.Context, studentKey string, answeredSince *time.Time) ([]models.Suggestion, error) {
	if s.stored.StudentKey == studentKey {
		return []models.Suggestion{s.stored}, nil
	}
	return nil, nil
}

func (s *suggestionRepoStub) ListForAdmin(ctx context.Context, filter dto.SuggestionFilter) ([]models.Suggestion, int64, error) {
	return []models.Suggestion{s.stored}, 1, nil
}

func (s *suggestionRepoStub) UpdateByOwner(ctx context.Context, id uint, studentKey string, changes map[string]interface{}) (models.Suggestion, error) {
	if s.updateErr != nil {
		return models.Suggestion{}, s.updateErr
	}
	s.changes = changes
	return s.stored, nil
}

func (s *suggestionRepoStub) DeleteByOwner(ctx context.Context, id uint, studentKey string) error {
	return s.updateErr
}

func (s *suggestionRepoStub) Answer(ctx context.Context, id uint, answer string, answeredAt time.Time) (models.Suggestion, bool, error) {
	if s.answerErr != nil {
		return models.Suggestion{}, false, s.answerErr
	}
	out := s.stored
	out.Answer = &answer
	out.AnsweredAt = &answeredAt
	out.Status = models.SuggestionStatusAnswered
	return out, s.wasPending, nil
}

func (s *suggestionRepoStub) DeleteByAdmin(ctx context.Context, id uint) error {
	return s.answerErr
}

type notifierStub struct {
	createdEvents  []models.Suggestion
	answeredEvents []models.Suggestion
}

func (n *notifierStub) SuggestionCreated(suggestion models.Suggestion) {
	n.createdEvents = append(n.createdEvents, suggestion)
}

func (n *notifierStub) SuggestionAnswered(suggestion models.Suggestion) {
	n.answeredEvents = append(n.answeredEvents, suggestion)
}

func newSuggestionService(repo repository.SuggestionRepository, cache *redis.Client, notifier SuggestionNotifier) SuggestionService {
	return NewSuggestionService(repo, cache, validator.New(validator.WithRequiredStructEnabled()), notifier, testLogger())
}

func TestSuggestionServiceCreate(t *testing.T) {
	repo := &suggestionRepoStub{}
	notifier := &notifierStub{}
	svc := newSuggestionService(repo, nil, notifier)

	resp, err := svc.Create(context.Background(), "key-a", dto.SuggestionCreateRequest{
		Grade:   2,
		Title:   "Longer lunch break",
		Content: "Twenty minutes is not enough.",
	})
	require.NoError(t, err)
	require.Equal(t, "key-a", resp.StudentKey)
	require.Equal(t, models.SuggestionStatusPending, resp.Status)
	require.Len(t, notifier.createdEvents, 1)
}

func TestSuggestionServiceCreateValidation(t *testing.T) {
	svc := newSuggestionService(&suggestionRepoStub{}, nil, &notifierStub{})

	cases := []dto.SuggestionCreateRequest{
		{Grade: 0, Title: "Valid title", Content: "Valid content here."},
		{Grade: 4, Title: "Valid title", Content: "Valid content here."},
		{Grade: 1, Title: "x", Content: "Valid content here."},
		{Grade: 1, Title: "Valid title", Content: "tiny"},
		{Grade: 1, Title: "Valid title", Content: "Valid content here.", NotificationEmail: "not-an-email"},
	}
	for _, payload := range cases {
		_, err := svc.Create(context.Background(), "key-a", payload)
		require.Error(t, err)
	}
}

func TestSuggestionServiceCreateStripsMarkup(t *testing.T) {
	repo := &suggestionRepoStub{}
	svc := newSuggestionService(repo, nil, &notifierStub{})

	resp, err := svc.Create(context.Background(), "key-a", dto.SuggestionCreateRequest{
		Grade:   1,
		Title:   "<b>Bold</b> idea",
		Content: "Please <script>alert(1)</script> consider this.",
	})
	require.NoError(t, err)
	require.Equal(t, "Bold idea", resp.Title)
	require.NotContains(t, resp.Content, "<script>")
}

func TestSuggestionServiceCreateDuplicateGuard(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	repo := &suggestionRepoStub{}
	svc := newSuggestionService(repo, redisClient, &notifierStub{})

	payload := dto.SuggestionCreateRequest{Grade: 2, Title: "Longer lunch break", Content: "Twenty minutes is not enough."}

	_, err = svc.Create(context.Background(), "key-a", payload)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "key-a", payload)
	require.ErrorIs(t, err, ErrDuplicate)

	// A different student submitting the same text is not a duplicate.
	_, err = svc.Create(context.Background(), "key-b", payload)
	require.NoError(t, err)
}

func TestSuggestionServiceUpdateByOwnerTranslatesErrors(t *testing.T) {
	title := "New title for it"

	repo := &suggestionRepoStub{updateErr: gorm.ErrRecordNotFound}
	svc := newSuggestionService(repo, nil, &notifierStub{})
	_, err := svc.UpdateByOwner(context.Background(), 1, "key-a", dto.SuggestionUpdateRequest{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)

	repo = &suggestionRepoStub{updateErr: repository.ErrLocked}
	svc = newSuggestionService(repo, nil, &notifierStub{})
	_, err = svc.UpdateByOwner(context.Background(), 1, "key-a", dto.SuggestionUpdateRequest{Title: &title})
	require.ErrorIs(t, err, ErrLocked)
}

func TestSuggestionServiceSetNotificationEmailClears(t *testing.T) {
	repo := &suggestionRepoStub{stored: models.Suggestion{ID: 1, StudentKey: "key-a"}}
	svc := newSuggestionService(repo, nil, &notifierStub{})

	_, err := svc.SetNotificationEmail(context.Background(), 1, "key-a", "Student@Example.COM")
	require.NoError(t, err)
	require.Equal(t, "student@example.com", repo.changes["notification_email"])

	_, err = svc.SetNotificationEmail(context.Background(), 1, "key-a", "")
	require.NoError(t, err)
	require.Nil(t, repo.changes["notification_email"])
}

func TestSuggestionServiceAnswerNotifiesOnlyFirstTime(t *testing.T) {
	repo := &suggestionRepoStub{stored: models.Suggestion{ID: 1, StudentKey: "key-a"}, wasPending: true}
	notifier := &notifierStub{}
	svc := newSuggestionService(repo, nil, notifier)

	resp, err := svc.Answer(context.Background(), 1, dto.SuggestionAnswerRequest{Answer: "We hear you."})
	require.NoError(t, err)
	require.Equal(t, models.SuggestionStatusAnswered, resp.Status)
	require.Len(t, notifier.answeredEvents, 1)

	repo.wasPending = false
	_, err = svc.Answer(context.Background(), 1, dto.SuggestionAnswerRequest{Answer: "Revised answer."})
	require.NoError(t, err)
	require.Len(t, notifier.answeredEvents, 1, "re-answering must not notify again")
}

func TestSuggestionServiceAnswerNotFound(t *testing.T) {
	repo := &suggestionRepoStub{answerErr: gorm.ErrRecordNotFound}
	svc := newSuggestionService(repo, nil, &notifierStub{})

	_, err := svc.Answer(context.Background(), 99, dto.SuggestionAnswerRequest{Answer: "No one home."})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSuggestionServiceAdminListOmitsStudentKeys(t *testing.T) {
	repo := &suggestionRepoStub{stored: models.Suggestion{ID: 1, StudentKey: "key-a", Title: "Idea"}}
	svc := newSuggestionService(repo, nil, &notifierStub{})

	resp, err := svc.ListForAdmin(context.Background(), dto.SuggestionFilter{})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.Empty(t, resp.Items[0].StudentKey)
	require.Equal(t, 1, resp.Pagination.Page)
	require.Equal(t, 20, resp.Pagination.PageSize)
}
