package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mochibot/pkg/interaction"
)

func TestInvokerRegistersSharedSession(t *testing.T) {
	h := newHarness()
	var voter string
	require.NoError(t, h.registry.Register(&Command{
		Name: "poll",
		Handler: func(context.Context, CommandRequest) (CommandResponse, error) {
			return CommandResponse{
				Content: "Pick one",
				Session: &PendingSession{
					Shared: true,
					Continuation: interaction.ContinuationFunc(func(_ context.Context, ev interaction.Event, _ interaction.RenderContext) (interaction.Outcome, error) {
						voter = ev.UserID
						return interaction.Done(interaction.Render{Content: "Thanks"}), nil
					}),
				},
			}, nil
		},
	}))

	require.NoError(t, h.run("$poll", false))
	sess, ok := h.router.Store().Lookup(interaction.KeyFor("user-1", "guild-1", "chan-1", "msg-1"))
	require.True(t, ok)
	assert.True(t, sess.Shared)
	assert.Equal(t, "poll", sess.Command)

	res := h.router.Dispatch(context.Background(), interaction.Event{
		Kind:      interaction.KindSelection,
		UserID:    "user-2",
		GuildID:   "guild-1",
		ChannelID: "chan-1",
		MessageID: "msg-1",
		Values:    []string{"a"},
	}, h.out)
	assert.Equal(t, interaction.StatusHandled, res.Status)
	assert.Equal(t, "user-2", voter)
	assert.Equal(t, 0, h.router.Store().Len())
}
