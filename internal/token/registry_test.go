package token

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func testTokens() []Token {
	return []Token{
		{
			Address:    common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
			Symbol:     "WBTC",
			Decimals:   8,
			LpAddress:  common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
			LpDecimals: 18,
			SeedPrice:  50000,
		},
		{
			Address:   common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc"),
			Symbol:    "USDT",
			Decimals:  6,
			SeedPrice: 1,
		},
	}
}

func TestRegistryLookupIsCaseInsensitive(t *testing.T) {
	registry, err := NewRegistry(testTokens())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	for _, address := range []string{
		"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
	} {
		got, ok := registry.ByAddress(address)
		if !ok || got.Symbol != "WBTC" {
			t.Fatalf("lookup %s failed: %+v %v", address, got, ok)
		}
	}

	if _, ok := registry.ByAddress("not-an-address"); ok {
		t.Fatalf("expected lookup failure for malformed address")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	tokens := testTokens()
	tokens[1].Address = tokens[0].Address
	if _, err := NewRegistry(tokens); err == nil {
		t.Fatalf("expected duplicate address error")
	}
}

func TestRegistryReserve(t *testing.T) {
	registry, err := NewRegistry(testTokens())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	reserve := registry.Reserve()
	if len(reserve) != 1 || reserve[0].Symbol != "WBTC" {
		t.Fatalf("reserve mismatch: %+v", reserve)
	}
}

func TestRegistryPrices(t *testing.T) {
	registry, err := NewRegistry(testTokens())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	addr := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	price, ok := registry.Price(addr.Hex())
	if !ok || price != 50000 {
		t.Fatalf("seed price mismatch: %f %v", price, ok)
	}

	registry.SetPrice(addr, 65000)
	price, ok = registry.Price(addr.Hex())
	if !ok || price != 65000 {
		t.Fatalf("updated price mismatch: %f %v", price, ok)
	}

	if _, ok := registry.Price("0x9999999999999999999999999999999999999999"); ok {
		t.Fatalf("expected missing price for unknown token")
	}
}
