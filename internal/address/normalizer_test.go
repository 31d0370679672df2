package address

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePlainPipeline(t *testing.T) {
	n := New(nil)
	got := n.Normalize(context.Background(), "Россия, г. Москва, ул. Тверская, д. 12, корпус 2, кв. 45")
	assert.Equal(t, "тверская 12 к2", got)
}

func TestNormalizeCorpusAbbreviationConverges(t *testing.T) {
	n := New(nil)
	a := n.Normalize(context.Background(), "ул. Ленина, д. 5, корпус 3")
	b := n.Normalize(context.Background(), "ул. Ленина, д. 5, к3")
	assert.Equal(t, a, b)
}

func TestNormalizeIdempotent(t *testing.T) {
	n := New(nil)
	raw := "г. Москва, проспект Мира, дом 101, строение 1, кв. 7"
	once := n.Normalize(context.Background(), raw)
	twice := n.Normalize(context.Background(), once)
	assert.Equal(t, once, twice)
}

type stubSuggestionClient struct {
	result string
	err    error
}

func (s stubSuggestionClient) Suggest(ctx context.Context, raw string) (string, error) {
	return s.result, s.err
}

func TestNormalizeUsesSuggestionWhenAvailable(t *testing.T) {
	n := New(stubSuggestionClient{result: "ул. Арбат, д. 1"})
	got := n.Normalize(context.Background(), "arbat street house 1 garbled")
	assert.Equal(t, "арбат 1", got)
}

func TestNormalizeFallsBackOnSuggestionFailure(t *testing.T) {
	n := New(stubSuggestionClient{err: errors.New("service unavailable")})
	got := n.Normalize(context.Background(), "ул. Арбат, д. 1")
	assert.Equal(t, "арбат 1", got)
}
