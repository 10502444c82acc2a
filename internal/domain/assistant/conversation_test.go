package assistant

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConversation_Title(t *testing.T) {
	c := NewConversation(uuid.New(), uuid.New(), "  What sold\nbest today? ")
	assert.Equal(t, "What sold best today?", c.Title)
	require.NotNil(t, c.CreatedBy)

	long := strings.Repeat("stock ", 30)
	c = NewConversation(uuid.New(), uuid.New(), long)
	assert.True(t, strings.HasSuffix(c.Title, "..."))
	assert.LessOrEqual(t, len([]rune(c.Title)), titleLength+3)
}

func TestNewMessage(t *testing.T) {
	_, err := NewMessage(uuid.New(), uuid.New(), RoleUser, "   ")
	assert.Error(t, err)

	_, err = NewMessage(uuid.New(), uuid.New(), RoleUser, strings.Repeat("a", MaxQuestionLength+1))
	assert.Error(t, err)

	m, err := NewMessage(uuid.New(), uuid.New(), RoleAssistant, strings.Repeat("a", MaxQuestionLength+1))
	require.NoError(t, err)
	assert.Equal(t, RoleAssistant, m.Role)
}
