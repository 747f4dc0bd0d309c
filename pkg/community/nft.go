package community

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// NFT is a token's metadata as indexed by Mochi.
type NFT struct {
	Name       string
	Image      string
	Attributes []Attribute
	// Rank is nil when the collection has no rarity data.
	Rank *int
}

// Attribute is one trait of an NFT.
type Attribute struct {
	TraitType string     `json:"trait_type"`
	Value     TraitValue `json:"value"`
	Count     int        `json:"count"`
	Rarity    string     `json:"rarity"`
}

// RarestTrait returns the attribute shared by the fewest tokens.
func (n *NFT) RarestTrait() (Attribute, bool) {
	if len(n.Attributes) == 0 {
		return Attribute{}, false
	}
	rarest := n.Attributes[0]
	for _, a := range n.Attributes[1:] {
		if a.Count < rarest.Count {
			rarest = a
		}
	}
	return rarest, true
}

// ImageURL returns the image with ipfs:// rewritten to a public gateway.
func (n *NFT) ImageURL() string {
	if i := strings.Index(n.Image, "ipfs://"); i >= 0 {
		return "https://ipfs.io/ipfs/" + n.Image[i+len("ipfs://"):]
	}
	return n.Image
}

// GetNFT fetches token tokenID of the collection with symbol.
func (c *Client) GetNFT(ctx context.Context, symbol, tokenID string) (*NFT, error) {
	var payload struct {
		Data struct {
			Metadata struct {
				Name       string      `json:"name"`
				Image      string      `json:"image"`
				Attributes []Attribute `json:"attributes"`
				Rarity     *struct {
					Rank int `json:"rank"`
				} `json:"rarity"`
			} `json:"metadata"`
		} `json:"data"`
	}
	path := "/nfts/" + url.PathEscape(symbol) + "/" + url.PathEscape(tokenID)
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}

	meta := payload.Data.Metadata
	nft := &NFT{
		Name:       meta.Name,
		Image:      meta.Image,
		Attributes: meta.Attributes,
	}
	if meta.Rarity != nil {
		rank := meta.Rarity.Rank
		nft.Rank = &rank
	}
	return nft, nil
}

// TraitValue accepts string, number and bool trait values.
type TraitValue string

func (v *TraitValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = TraitValue(s)
		return nil
	}
	if string(b) == "null" {
		*v = ""
		return nil
	}
	*v = TraitValue(b)
	return nil
}
