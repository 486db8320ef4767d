package lottery

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"lotteryScope/internal/model"
	"lotteryScope/internal/token"
)

var (
	wbtcAddress = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	wbtcLp      = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	usdtAddress = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
	userAddress = common.HexToAddress("0xDDdDddDdDdddDDddDDddDDDDdDdDDdDDdDDDDDDd")
)

func newTestDecoder(t *testing.T) *Decoder {
	t.Helper()
	registry, err := token.NewRegistry([]token.Token{
		{Address: wbtcAddress, Symbol: "WBTC", Decimals: 8, LpAddress: wbtcLp, LpDecimals: 18},
		{Address: usdtAddress, Symbol: "USDT", Decimals: 6},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	decoder, err := NewDecoder(registry, 0)
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	return decoder
}

func buildLog(topic0 common.Hash, data []byte) types.Log {
	return types.Log{
		Address:     common.HexToAddress("0x9999999999999999999999999999999999999999"),
		Topics:      []common.Hash{topic0},
		Data:        data,
		BlockNumber: 12345,
		BlockHash:   common.HexToHash("0xabc"),
		TxHash:      common.HexToHash("0xdef"),
		TxIndex:     3,
		Index:       7,
	}
}

func units(amount int64, decimals uint8) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Mul(big.NewInt(amount), scale)
}

func TestDecodeDeposit(t *testing.T) {
	decoder := newTestDecoder(t)
	potABI, err := PotABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	data, err := potABI.Events["TokenDeposited"].Inputs.Pack(
		wbtcAddress,
		units(1, 8),  // 1 WBTC
		units(2, 18), // 2 LP
		userAddress,
	)
	if err != nil {
		t.Fatalf("pack deposit: %v", err)
	}

	evt, err := decoder.DecodeDeposit(buildLog(decoder.Topic0(model.StreamDeposit), data), 1700000000)
	if err != nil {
		t.Fatalf("decode deposit: %v", err)
	}

	if evt.TokenSymbol != "WBTC" || evt.TokenAmount != 1 || evt.LpAmount != 2 {
		t.Fatalf("deposit amounts mismatch: %+v", evt)
	}
	if evt.User != "0xdddddddddddddddddddddddddddddddddddddddd" {
		t.Fatalf("user not lowercased: %s", evt.User)
	}
	if evt.RawTokenAmount != "100000000" {
		t.Fatalf("raw amount mismatch: %s", evt.RawTokenAmount)
	}
	if evt.BlockNumber != 12345 || evt.BlockTimestamp != 1700000000 || evt.LogIndex != 7 {
		t.Fatalf("event base mismatch: %+v", evt.EventBase)
	}
}

func TestDecodeWithdrawFieldOrder(t *testing.T) {
	decoder := newTestDecoder(t)
	potABI, err := PotABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	// TokenWithdrawn emits lpAmount before tokenAmount.
	data, err := potABI.Events["TokenWithdrawn"].Inputs.Pack(
		wbtcAddress,
		units(3, 18), // 3 LP
		units(1, 8),  // 1 WBTC
		userAddress,
	)
	if err != nil {
		t.Fatalf("pack withdraw: %v", err)
	}

	evt, err := decoder.DecodeWithdraw(buildLog(decoder.Topic0(model.StreamWithdraw), data), 1700000000)
	if err != nil {
		t.Fatalf("decode withdraw: %v", err)
	}

	if evt.TokenAmount != 1 {
		t.Fatalf("token amount mismatch: %f", evt.TokenAmount)
	}
	if evt.LpAmount != 3 {
		t.Fatalf("lp amount mismatch: %f", evt.LpAmount)
	}
}

func TestDecodePlay(t *testing.T) {
	decoder := newTestDecoder(t)
	potABI, err := PotABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	data, err := potABI.Events["PlayFulfilled"].Inputs.Pack(playStatus{
		Fulfilled:         true,
		Id:                big.NewInt(77),
		BlockNumber:       big.NewInt(12300),
		Player:            userAddress,
		InputToken:        usdtAddress,
		InputAmount:       units(10, 6), // 10 USDT
		Repeats:           big.NewInt(2),
		OutputToken:       wbtcAddress,
		TableId:           big.NewInt(3),
		RequestId:         big.NewInt(901),
		RandomWord:        big.NewInt(424242),
		OutcomeLevels:     []*big.Int{big.NewInt(1), big.NewInt(4)},
		OutputTotalAmount: units(5, 7), // 0.5 WBTC
		OutputXexpAmount:  units(100, 18),
	})
	if err != nil {
		t.Fatalf("pack play: %v", err)
	}

	evt, err := decoder.DecodePlay(buildLog(decoder.Topic0(model.StreamPlay), data), 1700000000)
	if err != nil {
		t.Fatalf("decode play: %v", err)
	}

	if !evt.Fulfilled || evt.PlayID != "77" || evt.RequestID != "901" {
		t.Fatalf("play identity mismatch: %+v", evt)
	}
	if evt.Player != "0xdddddddddddddddddddddddddddddddddddddddd" {
		t.Fatalf("player not lowercased: %s", evt.Player)
	}
	if evt.InputAmount != 10 || evt.Repeats != 2 {
		t.Fatalf("input mismatch: %+v", evt)
	}
	if evt.OutputTotalAmount != 0.5 || evt.OutputExpAmount != 100 {
		t.Fatalf("output mismatch: %+v", evt)
	}
	if evt.TableID != 3 || len(evt.OutcomeLevels) != 2 || evt.OutcomeLevels[1] != 4 {
		t.Fatalf("outcome mismatch: %+v", evt)
	}
}

func TestDecodeUnknownTokenFails(t *testing.T) {
	decoder := newTestDecoder(t)
	potABI, err := PotABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	unknown := common.HexToAddress("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")
	data, err := potABI.Events["TokenDeposited"].Inputs.Pack(
		unknown, units(1, 8), units(1, 18), userAddress,
	)
	if err != nil {
		t.Fatalf("pack deposit: %v", err)
	}

	if _, err := decoder.DecodeDeposit(buildLog(decoder.Topic0(model.StreamDeposit), data), 0); err == nil {
		t.Fatalf("expected unknown token error")
	}
}

func TestFormatUnits(t *testing.T) {
	if got := formatUnits(units(15, 17), 18); got != 1.5 {
		t.Fatalf("format mismatch: %f", got)
	}
	if got := formatUnits(nil, 18); got != 0 {
		t.Fatalf("nil should format to 0, got %f", got)
	}
	if got := formatUnits(big.NewInt(42), 0); got != 42 {
		t.Fatalf("zero decimals mismatch: %f", got)
	}
}
