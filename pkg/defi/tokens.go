package defi

import (
	"context"
	"fmt"
)

// Token is a token supported by Mochi.
type Token struct {
	ID                  int    `json:"id"`
	Address             string `json:"address"`
	Symbol              string `json:"symbol"`
	ChainID             int    `json:"chain_id"`
	Decimal             int    `json:"decimal"`
	DiscordBotSupported bool   `json:"discord_bot_supported"`
	CoinGeckoID         string `json:"coin_gecko_id"`
	Name                string `json:"name"`
}

// SupportedTokens lists the tokens the Mochi API supports.
func (c *Client) SupportedTokens(ctx context.Context) ([]Token, error) {
	var payload struct {
		Data []Token `json:"data"`
	}
	if err := c.getJSON(ctx, "mochi", c.mochi+"/defi/tokens", &payload); err != nil {
		return nil, fmt.Errorf("list supported tokens: %w", err)
	}
	return payload.Data, nil
}
