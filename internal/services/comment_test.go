package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRate(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	rater := f.user("rater")
	item := f.item(owner.ID, "lamp")

	view, err := f.comments.Rate(f.ctx, rater.ID, RatingRequest{StuffID: item.ID, Rating: 4, Comment: " nice "})
	require.NoError(t, err)
	assert.Equal(t, 4, view.Rating)
	assert.Equal(t, "nice", view.Comment)
	assert.Equal(t, rater.ID, view.From.ID)

	var verr *ValidationError
	_, err = f.comments.Rate(f.ctx, rater.ID, RatingRequest{StuffID: item.ID, Rating: 6})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "max=5", verr.Fields["rating"])

	_, err = f.comments.Rate(f.ctx, rater.ID, RatingRequest{StuffID: uuid.New().String(), Rating: 3})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAskAndAnswerNotify(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	asker := f.user("asker")
	item := f.item(owner.ID, "lamp")

	q, err := f.comments.Ask(f.ctx, asker.ID, QuestionRequest{StuffID: item.ID, Question: "Is it heavy?"})
	require.NoError(t, err)
	assert.NotNil(t, q.Answers)

	a, err := f.comments.Answer(f.ctx, owner.ID, q.ID, AnswerRequest{Body: "No"})
	require.NoError(t, err)
	assert.Equal(t, "No", a.Body)
	assert.Equal(t, owner.ID, a.From.ID)

	assert.Eventually(t, func() bool {
		var asked, answered bool
		for _, n := range f.notes.sent() {
			asked = asked || (n.userID == owner.ID && n.msg.Type == EventQuestionAsked)
			answered = answered || (n.userID == asker.ID && n.msg.Type == EventAnswered)
		}
		return asked && answered
	}, time.Second, 10*time.Millisecond)

	_, err = f.comments.Answer(f.ctx, owner.ID, uuid.New().String(), AnswerRequest{Body: "lost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOwnAnswerIsNotNotified(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	item := f.item(owner.ID, "lamp")

	q, err := f.comments.Ask(f.ctx, owner.ID, QuestionRequest{StuffID: item.ID, Question: "Anyone?"})
	require.NoError(t, err)
	_, err = f.comments.Answer(f.ctx, owner.ID, q.ID, AnswerRequest{Body: "Me"})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, f.notes.sent())
}
