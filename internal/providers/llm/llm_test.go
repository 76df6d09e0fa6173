package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/yoointerview/internal/models"
)

func stream(chunks []string, err error) (<-chan string, <-chan error) {
	out := make(chan string, len(chunks))
	errs := make(chan error, 1)
	for _, c := range chunks {
		out <- c
	}
	if err != nil {
		errs <- err
	}
	close(out)
	close(errs)
	return out, errs
}

func TestCollect(t *testing.T) {
	var seen []string
	c, e := stream([]string{"Hel", "lo"}, nil)
	got, err := Collect(c, e, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got)

	c, e = stream([]string{"a", "b"}, nil)
	_, err = Collect(c, e, func(s string) { seen = append(seen, s) })
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestCollect_Error(t *testing.T) {
	boom := errors.New("boom")
	c, e := stream([]string{"partial"}, boom)
	got, err := Collect(c, e, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "partial", got)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt([]models.Message{{Role: models.RoleSystem, Content: "SYS"}})
	assert.Equal(t, "SYS\n\nThe interview is starting now. Write your opening message.\n\nInterviewer:", p)

	p = BuildPrompt([]models.Message{
		{Role: models.RoleSystem, Content: "SYS"},
		{Role: models.RoleAssistant, Content: "What do you do?"},
		{Role: models.RoleUser, Content: "I teach."},
	})
	assert.Equal(t, "SYS\n\nConversation so far:\nInterviewer: What do you do?\nRespondent: I teach.\n\nInterviewer:", p)
}
