package commands

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mochibot/pkg/chart"
	"mochibot/pkg/community"
	"mochibot/pkg/defi"
	"mochibot/pkg/interaction"
	"mochibot/pkg/logger"
)

type sent struct {
	Event  interaction.Event
	Target interaction.Target
	Render interaction.Render
}

// fakeDiscord numbers every new message it sends.
type fakeDiscord struct {
	mu   sync.Mutex
	sent []sent
	next int
}

func (d *fakeDiscord) ApplyRender(_ context.Context, ev interaction.Event, target interaction.Target, r interaction.Render) (interaction.MessageRef, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, sent{Event: ev, Target: target, Render: r})
	if target == interaction.TargetOriginal {
		return interaction.MessageRef{ChannelID: ev.ChannelID, MessageID: ev.MessageID}, nil
	}
	d.next++
	return interaction.MessageRef{ChannelID: ev.ChannelID, MessageID: fmt.Sprintf("msg-%d", d.next)}, nil
}

func (d *fakeDiscord) last() sent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sent[len(d.sent)-1]
}

func (d *fakeDiscord) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

type fakeMarket struct {
	coins   []defi.Coin
	details map[string]*defi.CoinDetail
	tokens  []defi.Token
	err     error

	mu      sync.Mutex
	history []int
}

func (m *fakeMarket) SearchCoins(_ context.Context, query string) ([]defi.Coin, error) {
	return m.coins, m.err
}

func (m *fakeMarket) GetCoin(_ context.Context, id string) (*defi.CoinDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	d, ok := m.details[id]
	if !ok {
		return nil, defi.ErrNotFound
	}
	return d, nil
}

func (m *fakeMarket) GetHistory(_ context.Context, id, currency string, days int) (*defi.History, error) {
	m.mu.Lock()
	m.history = append(m.history, days)
	m.mu.Unlock()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &defi.History{
		CoinID:   id,
		Currency: currency,
		Days:     days,
		Points: []defi.PricePoint{
			{Time: start, Price: 1},
			{Time: start.Add(time.Hour), Price: 2},
		},
		From: "March 1, 2024",
		To:   "March 1, 2024",
	}, nil
}

func (m *fakeMarket) SupportedTokens(context.Context) ([]defi.Token, error) {
	return m.tokens, m.err
}

func (m *fakeMarket) historyCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.history...)
}

type fakeCharts struct{}

func (fakeCharts) Render(s chart.Series) ([]byte, error) {
	return []byte("png:" + s.Label), nil
}

type fakeCommunity struct {
	nft    *community.NFT
	nftErr error

	mu      sync.Mutex
	stats   []string
	invites []community.InviteConfig
}

func (c *fakeCommunity) GetNFT(context.Context, string, string) (*community.NFT, error) {
	return c.nft, c.nftErr
}

func (c *fakeCommunity) CreateStatChannel(_ context.Context, guildID, countType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = append(c.stats, guildID+":"+countType)
	return nil
}

func (c *fakeCommunity) ConfigureInvites(_ context.Context, cfg community.InviteConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invites = append(c.invites, cfg)
	return nil
}

func coinDetail(id, name string) *defi.CoinDetail {
	d := &defi.CoinDetail{ID: id, Name: name, Symbol: id[:3], MarketCapRank: 2}
	d.Image.Small = "https://img/" + id
	d.MarketData = defi.MarketData{
		CurrentPrice:   map[string]float64{"usd": 3000.5, "eur": 2800},
		MarketCap:      map[string]float64{"usd": 360000000000, "eur": 330000000000},
		PriceChange1h:  map[string]float64{"usd": 0.5},
		PriceChange24h: map[string]float64{"usd": -1.2},
		PriceChange7d:  map[string]float64{"usd": 4},
	}
	return d
}

type harness struct {
	registry  *Registry
	router    *interaction.Router
	invoker   *Invoker
	out       *fakeDiscord
	market    *fakeMarket
	community *fakeCommunity
}

func newHarness() *harness {
	market := &fakeMarket{
		coins: []defi.Coin{
			{ID: "ethereum", Name: "Ethereum", Symbol: "eth", MarketCapRank: 2},
			{ID: "ethereum-wormhole", Name: "Ethereum (Wormhole)", Symbol: "eth", MarketCapRank: 900},
		},
		details: map[string]*defi.CoinDetail{
			"ethereum":          coinDetail("ethereum", "Ethereum"),
			"ethereum-wormhole": coinDetail("ethereum-wormhole", "Ethereum (Wormhole)"),
		},
	}
	comm := &fakeCommunity{}

	registry := NewRegistry("$")
	router := interaction.NewRouter(interaction.NewStore(), logger.NewNop())
	if err := RegisterBuiltinCommands(registry, router.Store()); err != nil {
		panic(err)
	}
	if err := RegisterDomainCommands(registry, market, fakeCharts{}, comm); err != nil {
		panic(err)
	}

	return &harness{
		registry:  registry,
		router:    router,
		invoker:   NewInvoker(registry, router, logger.NewNop(), nil),
		out:       &fakeDiscord{},
		market:    market,
		community: comm,
	}
}

func (h *harness) run(text string, admin bool) error {
	name, args := h.registry.Parse(text)
	return h.invoker.Execute(context.Background(), CommandRequest{
		Channel:   "discord",
		GuildID:   "guild-1",
		ChannelID: "chan-1",
		UserID:    "user-1",
		Username:  "alice",
		Command:   name,
		Args:      args,
		IsAdmin:   admin,
	}, h.out)
}

// pick selects values on message msgID as user-1.
func (h *harness) pick(msgID, customID string, values ...string) interaction.Result {
	return h.router.Dispatch(context.Background(), interaction.Event{
		Kind:      interaction.KindSelection,
		UserID:    "user-1",
		GuildID:   "guild-1",
		ChannelID: "chan-1",
		MessageID: msgID,
		CustomID:  customID,
		Values:    values,
	}, h.out)
}
