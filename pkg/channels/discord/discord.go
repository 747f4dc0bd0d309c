// Package discord provides Discord channel implementation.
package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"mochibot/pkg/commands"
	"mochibot/pkg/config"
	"mochibot/pkg/interaction"
	"mochibot/pkg/logger"
)

// Channel implements Discord channel.
type Channel struct {
	log      *logger.Logger
	config   *config.Config
	invoker  *commands.Invoker
	router   *interaction.Router
	session  *discordgo.Session
	renderer *Renderer

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

// NewChannel creates a new Discord channel.
func NewChannel(
	log *logger.Logger,
	cfg *config.Config,
	invoker *commands.Invoker,
	router *interaction.Router,
) (*Channel, error) {
	// Create Discord session
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}

	return &Channel{
		log:      log,
		config:   cfg,
		invoker:  invoker,
		router:   router,
		session:  session,
		renderer: NewRenderer(session),
	}, nil
}

// ID returns the channel identifier.
func (c *Channel) ID() string {
	return "discord"
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return "Discord"
}

// IsEnabled returns whether the channel is enabled.
func (c *Channel) IsEnabled() bool {
	return c.config.Discord.Enabled
}

// Start starts the Discord bot.
func (c *Channel) Start(ctx context.Context) error {
	c.log.Info("Starting Discord channel")

	c.mu.Lock()
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	c.session.AddHandler(c.handleMessage)
	c.session.AddHandler(c.handleInteraction)

	c.session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	// Open WebSocket connection
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("opening discord connection: %w", err)
	}

	c.mu.Lock()
	c.running = true
	c.mu.Unlock()

	botUser, err := c.session.User("@me")
	if err != nil {
		c.log.Warn("Failed to get bot user", zap.Error(err))
	} else {
		c.log.Info("Discord bot connected",
			zap.String("username", botUser.Username),
			zap.String("user_id", botUser.ID))
	}

	return nil
}

// Stop stops the Discord bot.
func (c *Channel) Stop(ctx context.Context) error {
	c.log.Info("Stopping Discord channel")

	c.mu.Lock()
	c.running = false
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	if c.session != nil {
		if err := c.session.Close(); err != nil {
			return fmt.Errorf("closing discord session: %w", err)
		}
	}

	return nil
}

func (c *Channel) context() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// handleMessage runs prefix commands.
func (c *Channel) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	registry := c.invoker.Registry()
	if !registry.IsCommand(m.Content) {
		return
	}

	if !isAllowed(c.config.AllowList(), m.Author.ID) {
		c.log.Warn("Unauthorized user",
			zap.String("user_id", m.Author.ID),
			zap.String("username", m.Author.Username))
		return
	}

	cmdName, args := registry.Parse(m.Content)
	req := commands.CommandRequest{
		Channel:   "discord",
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		UserID:    m.Author.ID,
		Username:  m.Author.Username,
		Command:   cmdName,
		Args:      args,
		IsAdmin:   c.isAdmin(s, m),
		Metadata: map[string]string{
			"message_id": m.ID,
		},
		Raw: m.Message,
	}

	c.log.Info("Executing command",
		zap.String("command", cmdName),
		zap.String("user", m.Author.Username))

	if err := c.invoker.Execute(c.context(), req, c.renderer); err != nil {
		c.log.Error("Command execution failed",
			zap.String("command", cmdName),
			zap.Error(err))
	}
}

func (c *Channel) isAdmin(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	if m.GuildID == "" {
		return false
	}
	perms, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil {
		c.log.Warn("Failed to resolve permissions",
			zap.String("user_id", m.Author.ID),
			zap.Error(err))
		return false
	}
	return perms&discordgo.PermissionAdministrator != 0
}

// handleInteraction acknowledges a component interaction and routes it to
// the session that owns the message.
func (c *Channel) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ev, ok := componentEvent(i.Interaction)
	if !ok {
		return
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		c.log.Warn("Failed to acknowledge interaction", zap.Error(err))
		return
	}

	res := c.dispatch(ev)
	if res.Err != nil && !errors.Is(res.Err, interaction.ErrNotFound) {
		c.log.Debug("Interaction not handled",
			zap.String("status", res.Status.String()),
			zap.Error(res.Err))
	}
}

// dispatch routes ev under the command deadline, which also bounds the
// wait for a busy session.
func (c *Channel) dispatch(ev interaction.Event) interaction.Result {
	ctx, cancel := context.WithTimeout(c.context(), c.config.CommandTimeout())
	defer cancel()
	return c.router.Dispatch(ctx, ev, c.renderer)
}

// componentEvent converts a message component interaction. Anything else
// is not routed.
func componentEvent(i *discordgo.Interaction) (interaction.Event, bool) {
	if i == nil || i.Type != discordgo.InteractionMessageComponent || i.Message == nil {
		return interaction.Event{}, false
	}
	data := i.MessageComponentData()

	ev := interaction.Event{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		MessageID: i.Message.ID,
		CustomID:  data.CustomID,
		Values:    data.Values,
		Raw:       i,
	}
	switch {
	case i.Member != nil && i.Member.User != nil:
		ev.UserID, ev.Username = i.Member.User.ID, i.Member.User.Username
	case i.User != nil:
		ev.UserID, ev.Username = i.User.ID, i.User.Username
	default:
		return interaction.Event{}, false
	}

	switch {
	case data.CustomID == interaction.ExitCustomID:
		ev.Kind = interaction.KindCancel
	case data.ComponentType == discordgo.ButtonComponent:
		ev.Kind = interaction.KindButton
	default:
		ev.Kind = interaction.KindSelection
	}
	return ev, true
}

// isAllowed checks if a user is allowed to use the bot.
func isAllowed(allowList []string, userID string) bool {
	if len(allowList) == 0 {
		return true
	}

	for _, allowed := range allowList {
		allowed = strings.TrimSpace(allowed)
		if allowed == userID || allowed == "*" {
			return true
		}
	}

	return false
}
